// Package llm adapts hosted language-model APIs to ports.LanguageModel.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"DailyCast/internal/config"
	"DailyCast/internal/ports"
	"DailyCast/internal/retry"
)

const (
	defaultTimeout   = 2 * time.Minute
	defaultMaxTokens = 4096
	maxResponseBytes = 4 << 20
)

// New selects the provider named in cfg.
func New(ctx context.Context, cfg config.LLMConfig, policy retry.Policy) (ports.LanguageModel, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "anthropic":
		return NewAnthropicClient(cfg, policy), nil
	case "openai":
		return NewChatGPTClient(cfg, policy), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg, policy)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func httpClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func maxTokens(requested, configured int) int {
	if requested > 0 {
		return requested
	}
	if configured > 0 {
		return configured
	}
	return defaultMaxTokens
}

// postJSON sends payload and decodes a 2xx response into out. Non-2xx
// responses become *retry.StatusError so the policy can classify them.
func postJSON(ctx context.Context, client *http.Client, op, endpoint string, headers map[string]string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return retry.NewStatusError(op, resp, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w (body=%s)", op, err, retry.Snippet(string(raw), 200))
	}
	return nil
}
