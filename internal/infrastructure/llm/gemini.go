package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"DailyCast/internal/config"
	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
	"DailyCast/internal/retry"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClient calls generateContent through the Google GenAI SDK.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int
	policy    retry.Policy
}

var _ ports.LanguageModel = (*GeminiClient)(nil)

// NewGeminiClient creates the SDK client. A non-empty Endpoint replaces the
// API base URL.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, policy retry.Policy) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key not configured")
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient(cfg.Timeout),
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: endpoint}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" || strings.HasPrefix(model, "claude") {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model, maxTokens: cfg.MaxTokens, policy: policy}, nil
}

// Complete runs one generateContent call with the system prompt as instruction.
func (g *GeminiClient) Complete(ctx context.Context, prompt domain.Prompt) (string, error) {
	if g == nil || g.client == nil {
		return "", errors.New("gemini client is nil")
	}

	gc := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens(prompt.MaxTokens, g.maxTokens)),
	}
	if strings.TrimSpace(prompt.System) != "" {
		gc.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	var text string
	err := g.policy.Do(ctx, "gemini generate", func(ctx context.Context) error {
		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt.User), gc)
		if err != nil {
			return statusFromAPIError(err)
		}
		text = resp.Text()
		if text == "" {
			return errors.New("gemini generate: empty response")
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// statusFromAPIError lets the retry policy classify SDK errors by HTTP code.
func statusFromAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &retry.StatusError{Op: "gemini generate", StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &retry.StatusError{Op: "gemini generate", StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("gemini generate: %w", err)
}
