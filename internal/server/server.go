// Package server exposes the chat webhook and a health probe over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"DailyCast/internal/domain"
	"DailyCast/internal/infrastructure/telegram"
)

const (
	maxUpdateBytes  = 1 << 20
	commandTimeout  = 5 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// CommandHandler routes one operator command.
type CommandHandler interface {
	Handle(ctx context.Context, cmd domain.OperatorCommand) (domain.RouteDecision, error)
}

// Gate reports whether a named pipeline is currently active.
type Gate interface {
	Active(name string) bool
}

// Deps wires the webhook server.
type Deps struct {
	Commands CommandHandler
	Gate     Gate
	// GateName is the registry entry that pauses command handling.
	GateName string
	Secret   string
	Logger   *slog.Logger
}

// Server acknowledges webhook updates immediately and routes commands in
// the background.
type Server struct {
	deps   Deps
	logger *slog.Logger
	router chi.Router
	wg     sync.WaitGroup
}

// New builds the HTTP router.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{deps: deps, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Post("/telegram/webhook", s.handleWebhook)
	s.router = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight commands.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("webhook server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return s.Wait(shutdownCtx)
}

// Wait blocks until background commands finish or ctx expires.
func (s *Server) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !telegram.ValidSecret(s.deps.Secret, r.Header.Get(telegram.SecretHeader)) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	cmd, ok, err := telegram.ParseUpdate(body)
	if err != nil {
		http.Error(w, "bad update", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
	if !ok {
		return
	}

	log := s.logger.With("request_id", middleware.GetReqID(r.Context()), "chat_id", cmd.ChatID)
	if s.deps.Gate != nil && s.deps.GateName != "" && !s.deps.Gate.Active(s.deps.GateName) {
		log.Info("command ignored, concierge paused")
		return
	}
	if s.deps.Commands == nil {
		log.Warn("command dropped, no handler configured")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), commandTimeout)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		decision, err := s.deps.Commands.Handle(ctx, cmd)
		if err != nil {
			log.Warn("command handling failed", "error", err)
			return
		}
		log.Info("command routed", "route", decision.Route, "action", decision.Action)
	}()
}
