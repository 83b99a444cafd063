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

const chatGPTEndpoint = "https://api.openai.com/v1/chat/completions"

// ChatGPTClient implements ports.LanguageModel backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	endpoint   string
	model      string
	apiKey     string
	maxTokens  int
	policy     retry.Policy
	httpClient *http.Client
}

var _ ports.LanguageModel = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.LLMConfig, policy retry.Policy) *ChatGPTClient {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = chatGPTEndpoint
	}
	return &ChatGPTClient{
		endpoint:   endpoint,
		model:      strings.TrimSpace(cfg.Model),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxTokens:  cfg.MaxTokens,
		policy:     policy,
		httpClient: httpClient(cfg.Timeout),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Complete posts the prompt as a system + user message pair.
func (c *ChatGPTClient) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	if c == nil {
		return "", errors.New("chatgpt client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", errors.New("chatgpt client misconfigured")
	}

	payload := map[string]any{
		"model":      c.model,
		"max_tokens": maxTokens(prompt.MaxTokens, c.maxTokens),
		"messages": []chatMessage{
			{Role: "system", Content: safePrompt(prompt.System)},
			{Role: "user", Content: prompt.User},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}

	var text string
	err := c.policy.Do(ctx, "chatgpt completion", func(ctx context.Context) error {
		var resp chatCompletionResponse
		if err := postJSON(ctx, c.httpClient, "chatgpt completion", c.endpoint, headers, payload, &resp); err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("chatgpt completion: no choices returned")
		}
		text = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a helpful assistant for a daily news podcast."
	}
	return prompt
}
