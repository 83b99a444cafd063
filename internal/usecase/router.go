package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"DailyCast/internal/domain"
	"DailyCast/internal/extract"
	"DailyCast/internal/ports"
)

const (
	conciergeMaxTokens = 1024
	noMessage          = "(no message)"
	classifyFailReply  = "Sorry, I could not process that command. Please try again."
)

// RouterDeps wires the concierge.
type RouterDeps struct {
	Model        ports.LanguageModel
	Notifier     ports.Notifier
	Dispatcher   ports.Dispatcher
	SystemPrompt string
	// Routes maps a decision route to a dispatcher target.
	Routes map[string]string
	// Fallback is used for routes missing from Routes; empty disables it.
	Fallback string
	Logger   *slog.Logger
}

// Router classifies operator commands, always replies, and dispatches at
// most one sub-agent per command.
type Router struct {
	model      ports.LanguageModel
	notifier   ports.Notifier
	dispatcher ports.Dispatcher
	system     string
	routes     map[string]string
	fallback   string
	logger     *slog.Logger
}

// NewRouter constructs the concierge.
func NewRouter(deps RouterDeps) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		model:      deps.Model,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		system:     deps.SystemPrompt,
		routes:     deps.Routes,
		fallback:   deps.Fallback,
		logger:     logger,
	}
}

// Handle processes one command. The reply and the dispatch are independent
// branches of the same decision: a failure in one never suppresses the other.
func (r *Router) Handle(ctx context.Context, cmd domain.OperatorCommand) (domain.RouteDecision, error) {
	decision, err := r.classify(ctx, cmd)
	if err != nil {
		replyErr := r.reply(ctx, cmd.ChatID, classifyFailReply)
		return domain.RouteDecision{}, errors.Join(fmt.Errorf("classify command: %w", err), replyErr)
	}

	replyErr := r.reply(ctx, cmd.ChatID, decision.Response)
	routeErr := r.route(ctx, cmd, decision)
	if routeErr != nil {
		r.logger.Warn("route failed", "route", decision.Route, "error", routeErr)
	}
	return decision, errors.Join(replyErr, routeErr)
}

func (r *Router) classify(ctx context.Context, cmd domain.OperatorCommand) (domain.RouteDecision, error) {
	if r.model == nil {
		return domain.RouteDecision{}, errors.New("language model is not configured")
	}
	text, err := r.model.Complete(ctx, domain.Prompt{System: r.system, User: cmd.Text, MaxTokens: conciergeMaxTokens})
	if err != nil {
		return domain.RouteDecision{}, err
	}
	return ParseRouteDecision(text)
}

// ParseRouteDecision applies field defaults to a concierge response.
func ParseRouteDecision(text string) (domain.RouteDecision, error) {
	fields, err := extract.Object(text)
	if err != nil {
		return domain.RouteDecision{}, err
	}
	return domain.RouteDecision{
		Route:                strings.TrimSpace(fields.String(domain.RouteSelf, "route")),
		Action:               fields.String("", "action"),
		Response:             fields.String(noMessage, "response"),
		RequiresConfirmation: fields.Bool("requires_confirmation", false),
	}, nil
}

func (r *Router) reply(ctx context.Context, chatID, text string) error {
	if r.notifier == nil {
		return errors.New("reply: notifier is not configured")
	}
	if err := r.notifier.SendMessage(ctx, domain.ChatMessage{ChatID: chatID, Text: text}); err != nil {
		r.logger.Warn("reply failed", "chat_id", chatID, "error", err)
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

func (r *Router) route(ctx context.Context, cmd domain.OperatorCommand, decision domain.RouteDecision) error {
	if decision.Route == domain.RouteSelf {
		return nil
	}
	target, ok := r.routes[decision.Route]
	if !ok {
		target = r.fallback
	}
	if target == "" {
		return fmt.Errorf("route %q has no target", decision.Route)
	}
	if r.dispatcher == nil {
		return errors.New("dispatcher is not configured")
	}
	r.logger.Info("dispatching command", "route", decision.Route, "target", target, "action", decision.Action)
	return r.dispatcher.Dispatch(ctx, target, domain.AgentRequest{
		OperatorCommand: cmd.Text,
		ChatID:          cmd.ChatID,
	})
}
