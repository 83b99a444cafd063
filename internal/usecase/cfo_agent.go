package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"DailyCast/internal/domain"
	"DailyCast/internal/extract"
	"DailyCast/internal/ports"
)

const (
	agentMaxTokens = 2048
	cfoNote        = `NOTE: Live API usage data pipeline not yet fully wired. Respond based on the operator command and budget thresholds. If no command, produce a daily status report with action: "none".`
)

// CFOAgentDeps wires the cost agent. Location is the timezone run records
// are dated in; nil means UTC.
type CFOAgentDeps struct {
	Model         ports.LanguageModel
	Notifier      ports.Notifier
	Breaker       *Breaker
	RunLog        ports.RunLog
	SystemPrompt  string
	Budget        map[string]any
	DefaultChatID string
	Location      *time.Location
	Logger        *slog.Logger
}

// CFOAgent reviews spend and decides whether to trip the circuit breaker.
type CFOAgent struct {
	deps CFOAgentDeps
	now  func() time.Time
}

var _ ports.Agent = (*CFOAgent)(nil)

// NewCFOAgent constructs the cost agent.
func NewCFOAgent(deps CFOAgentDeps) *CFOAgent {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &CFOAgent{deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// Handle runs one review. The chat report and the breaker action are
// independent: the report is sent even when no action is taken.
func (a *CFOAgent) Handle(ctx context.Context, req domain.AgentRequest) error {
	if a.deps.Model == nil {
		return errors.New("cfo: language model is not configured")
	}

	user, err := a.message(ctx, req.OperatorCommand)
	if err != nil {
		return err
	}

	text, err := a.deps.Model.Complete(ctx, domain.Prompt{System: a.deps.SystemPrompt, User: user, MaxTokens: agentMaxTokens})
	if err != nil {
		return fmt.Errorf("cfo request: %w", err)
	}
	decision, err := ParseActivationDecision(text)
	if err != nil {
		return fmt.Errorf("cfo response: %w", err)
	}

	chatID := req.ChatID
	if chatID == "" {
		chatID = a.deps.DefaultChatID
	}

	var sendErr error
	if a.deps.Notifier != nil {
		sendErr = a.deps.Notifier.SendMessage(ctx, domain.ChatMessage{ChatID: chatID, Text: decision.Message})
		if sendErr != nil {
			a.deps.Logger.Warn("cfo report not delivered", "error", sendErr)
		}
	}

	if decision.AnomalyDetected {
		a.deps.Logger.Warn("cost anomaly reported", "details", string(decision.AnomalyDetails))
	}
	if a.deps.Breaker != nil {
		report := a.deps.Breaker.Apply(ctx, decision.Action)
		a.deps.Logger.Info("cfo decision applied", "action", decision.Action, "toggled", len(report.Results), "failed", report.Failed())
	}

	if sendErr != nil {
		return fmt.Errorf("cfo report: %w", sendErr)
	}
	return nil
}

func (a *CFOAgent) message(ctx context.Context, command string) (string, error) {
	budget := a.deps.Budget
	if budget == nil {
		budget = map[string]any{}
	}
	budgetJSON, err := json.MarshalIndent(budget, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode budget: %w", err)
	}

	parts := []string{}
	if strings.TrimSpace(command) != "" {
		parts = append(parts, "OPERATOR COMMAND: "+command)
	} else {
		parts = append(parts, "TRIGGER: post-episode daily cost check")
	}
	parts = append(parts, "", "BUDGET CONFIG:", string(budgetJSON))

	if a.deps.RunLog != nil {
		date := a.now().In(a.deps.Location).Format(time.DateOnly)
		rec, ok, err := a.deps.RunLog.Get(ctx, date)
		if err != nil {
			a.deps.Logger.Warn("run record unavailable", "date", date, "error", err)
		} else if ok {
			recJSON, err := json.MarshalIndent(rec, "", "  ")
			if err == nil {
				parts = append(parts, "", "TODAY'S RUN RECORD:", string(recJSON))
			}
		}
	}

	parts = append(parts, "", cfoNote)
	return strings.Join(parts, "\n"), nil
}

// ParseActivationDecision applies field defaults to a cost-agent response.
func ParseActivationDecision(text string) (domain.ActivationDecision, error) {
	fields, err := extract.Object(text)
	if err != nil {
		return domain.ActivationDecision{}, err
	}
	action := domain.ActivationAction(strings.ToLower(strings.TrimSpace(fields.String(string(domain.ActionNone), "action"))))
	return domain.ActivationDecision{
		Action:          action,
		Message:         fields.String(noMessage, "telegram_message", "whatsapp_message"),
		CostSummary:     fields.Raw("cost_summary", json.RawMessage(`{}`)),
		AnomalyDetected: fields.Bool("anomaly_detected", false),
		AnomalyDetails:  fields.Raw("anomaly_details", nil),
	}, nil
}
