package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"DailyCast/internal/config"
	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
	"DailyCast/internal/retry"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	anthropicVersion  = "2023-06-01"
)

// AnthropicClient calls the Messages API.
type AnthropicClient struct {
	endpoint   string
	model      string
	apiKey     string
	maxTokens  int
	policy     retry.Policy
	httpClient *http.Client
}

var _ ports.LanguageModel = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration.
func NewAnthropicClient(cfg config.LLMConfig, policy retry.Policy) *AnthropicClient {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = anthropicEndpoint
	}
	return &AnthropicClient{
		endpoint:   endpoint,
		model:      strings.TrimSpace(cfg.Model),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxTokens:  cfg.MaxTokens,
		policy:     policy,
		httpClient: httpClient(cfg.Timeout),
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Complete sends one system + user turn and returns the first content block's text.
func (c *AnthropicClient) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	if c == nil {
		return "", errors.New("anthropic client is nil")
	}
	if c.apiKey == "" || c.model == "" {
		return "", errors.New("anthropic client misconfigured")
	}

	payload := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens(prompt.MaxTokens, c.maxTokens),
		System:    prompt.System,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt.User}},
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var text string
	err := c.policy.Do(ctx, "anthropic messages", func(ctx context.Context) error {
		var resp anthropicResponse
		if err := postJSON(ctx, c.httpClient, "anthropic messages", c.endpoint, headers, payload, &resp); err != nil {
			return err
		}
		if len(resp.Content) == 0 {
			return fmt.Errorf("anthropic messages: empty content (stop_reason=%q)", resp.StopReason)
		}
		text = resp.Content[0].Text
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
