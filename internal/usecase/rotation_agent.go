package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"DailyCast/internal/domain"
	"DailyCast/internal/extract"
	"DailyCast/internal/ports"
)

// RotationAgentDeps wires the source-rotation advisor.
type RotationAgentDeps struct {
	Model         ports.LanguageModel
	Notifier      ports.Notifier
	Catalog       ports.SourceCatalog
	SystemPrompt  string
	DefaultChatID string
	Logger        *slog.Logger
}

// RotationAgent reviews the source list and reports a recommendation. It
// never edits the configuration itself.
type RotationAgent struct {
	deps RotationAgentDeps
}

var _ ports.Agent = (*RotationAgent)(nil)

// NewRotationAgent constructs the advisor.
func NewRotationAgent(deps RotationAgentDeps) *RotationAgent {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &RotationAgent{deps: deps}
}

// Handle runs one review and sends the report to chat.
func (a *RotationAgent) Handle(ctx context.Context, req domain.AgentRequest) error {
	if a.deps.Model == nil {
		return errors.New("rotation: language model is not configured")
	}

	var sources []domain.Source
	if a.deps.Catalog != nil {
		var err error
		sources, err = a.deps.Catalog.Sources(ctx)
		if err != nil {
			return fmt.Errorf("rotation: load sources: %w", err)
		}
	}
	if sources == nil {
		sources = []domain.Source{}
	}
	sourcesJSON, err := json.MarshalIndent(map[string]any{"sources": sources}, "", "  ")
	if err != nil {
		return fmt.Errorf("rotation: encode sources: %w", err)
	}

	header := "TRIGGER: biweekly source rotation review"
	if strings.TrimSpace(req.OperatorCommand) != "" {
		header = "OPERATOR COMMAND: " + req.OperatorCommand
	}
	user := strings.Join([]string{header, "", "CURRENT SOURCES CONFIG:", string(sourcesJSON)}, "\n")

	text, err := a.deps.Model.Complete(ctx, domain.Prompt{System: a.deps.SystemPrompt, User: user, MaxTokens: agentMaxTokens})
	if err != nil {
		return fmt.Errorf("rotation request: %w", err)
	}
	advice, err := ParseRotationAdvice(text)
	if err != nil {
		return fmt.Errorf("rotation response: %w", err)
	}
	a.deps.Logger.Info("rotation advice", "recommendation", advice.Recommendation, "has_new_sources", advice.NewSources != nil)

	if a.deps.Notifier == nil {
		return nil
	}
	chatID := req.ChatID
	if chatID == "" {
		chatID = a.deps.DefaultChatID
	}
	if err := a.deps.Notifier.SendMessage(ctx, domain.ChatMessage{ChatID: chatID, Text: advice.Message}); err != nil {
		return fmt.Errorf("rotation report: %w", err)
	}
	return nil
}

// ParseRotationAdvice applies field defaults to a rotation-agent response.
func ParseRotationAdvice(text string) (domain.RotationAdvice, error) {
	fields, err := extract.Object(text)
	if err != nil {
		return domain.RotationAdvice{}, err
	}
	return domain.RotationAdvice{
		Recommendation: fields.String("no_change", "recommendation"),
		Message:        fields.String(noMessage, "telegram_message"),
		Analysis:       fields.Raw("analysis", json.RawMessage(`{}`)),
		NewSources:     fields.Raw("new_sources_array", nil),
	}, nil
}
