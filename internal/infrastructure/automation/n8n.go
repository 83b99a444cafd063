// Package automation switches dependent pipelines on and off.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"DailyCast/internal/config"
	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
	"DailyCast/internal/retry"
)

// WorkflowClient toggles workflows on the automation host REST API.
type WorkflowClient struct {
	endpoint string
	apiKey   string
	policy   retry.Policy
	client   *http.Client
}

var _ ports.Activator = (*WorkflowClient)(nil)

// NewWorkflowClient builds a client from configuration.
func NewWorkflowClient(cfg config.AutomationConfig, policy retry.Policy) *WorkflowClient {
	return &WorkflowClient{
		endpoint: strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		apiKey:   strings.TrimSpace(cfg.APIKey),
		policy:   policy,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// SetActive sends PATCH /workflows/{id} with {"active": active}. Entries
// without a workflow id only exist in-process and are skipped.
func (c *WorkflowClient) SetActive(ctx context.Context, entry domain.PipelineEntry, active bool) error {
	if strings.TrimSpace(entry.ID) == "" {
		return nil
	}
	if c.endpoint == "" || c.apiKey == "" {
		return errors.New("automation client misconfigured")
	}

	body, err := json.Marshal(map[string]bool{"active": active})
	if err != nil {
		return fmt.Errorf("marshal activation: %w", err)
	}
	endpoint := fmt.Sprintf("%s/workflows/%s", c.endpoint, url.PathEscape(entry.ID))
	op := fmt.Sprintf("set %s active=%t", entry.Name, active)

	return c.policy.Do(ctx, op, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("%s: new request: %w", op, err)
		}
		req.Header.Set("X-N8N-API-KEY", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return retry.NewStatusError(op, resp, raw)
		}
		return nil
	})
}
