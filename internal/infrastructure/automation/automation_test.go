package automation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"DailyCast/internal/config"
	"DailyCast/internal/domain"
	"DailyCast/internal/retry"
)

func TestWorkflowClientPatchesActivation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/v1/workflows/wf-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-N8N-API-KEY") != "key" {
			t.Errorf("missing api key header")
		}
		var body map[string]bool
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if active, ok := body["active"]; !ok || active {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"id":"wf-1","active":false}`))
	}))
	defer server.Close()

	client := NewWorkflowClient(config.AutomationConfig{Endpoint: server.URL + "/api/v1", APIKey: "key"}, retry.Policy{})
	err := client.SetActive(context.Background(), domain.PipelineEntry{Name: "daily-pipeline", ID: "wf-1"}, false)
	require.NoError(t, err)
}

func TestWorkflowClientStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewWorkflowClient(config.AutomationConfig{Endpoint: server.URL, APIKey: "key"}, retry.Policy{})
	err := client.SetActive(context.Background(), domain.PipelineEntry{Name: "growth", ID: "missing"}, true)
	var statusErr *retry.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestWorkflowClientSkipsLocalEntries(t *testing.T) {
	t.Parallel()

	client := NewWorkflowClient(config.AutomationConfig{}, retry.Policy{})
	require.NoError(t, client.SetActive(context.Background(), domain.PipelineEntry{Name: "local"}, false))
}

func TestSwitchboard(t *testing.T) {
	t.Parallel()

	sb := NewSwitchboard()
	ctx := context.Background()
	require.True(t, sb.Active("concierge"))

	require.NoError(t, sb.SetActive(ctx, domain.PipelineEntry{Name: "concierge"}, false))
	require.False(t, sb.Active("concierge"))
	require.True(t, sb.Active("daily-pipeline"))

	require.NoError(t, sb.SetActive(ctx, domain.PipelineEntry{Name: "concierge"}, true))
	require.True(t, sb.Active("concierge"))
}

type failingActivator struct{}

func (failingActivator) SetActive(context.Context, domain.PipelineEntry, bool) error {
	return errors.New("host down")
}

func TestChainAppliesAllAndJoinsErrors(t *testing.T) {
	t.Parallel()

	sb := NewSwitchboard()
	chain := Chain{failingActivator{}, sb}

	err := chain.SetActive(context.Background(), domain.PipelineEntry{Name: "growth"}, false)
	require.ErrorContains(t, err, "host down")
	require.False(t, sb.Active("growth"), "local switch flips despite remote failure")
}
