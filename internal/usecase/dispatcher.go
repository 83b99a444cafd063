package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
)

const defaultDispatchTimeout = 5 * time.Minute

// AsyncDispatcher runs agents in the background. Callers never wait for or
// observe the outcome; failures are logged as warnings.
type AsyncDispatcher struct {
	mu      sync.RWMutex
	agents  map[string]ports.Agent
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
}

var _ ports.Dispatcher = (*AsyncDispatcher)(nil)

// NewAsyncDispatcher builds a dispatcher; timeout bounds each background run.
func NewAsyncDispatcher(timeout time.Duration, logger *slog.Logger) *AsyncDispatcher {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncDispatcher{
		agents:  map[string]ports.Agent{},
		timeout: timeout,
		logger:  logger,
	}
}

// Register adds or replaces the agent behind a target name.
func (d *AsyncDispatcher) Register(target string, agent ports.Agent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.agents[target] = agent
}

// Dispatch starts the target agent and returns immediately. The only error
// is an unknown target.
func (d *AsyncDispatcher) Dispatch(ctx context.Context, target string, req domain.AgentRequest) error {
	d.mu.RLock()
	agent, ok := d.agents[target]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("dispatch: unknown target %q", target)
	}

	id := uuid.NewString()
	log := d.logger.With("dispatch_id", id, "target", target)
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				log.Error("dispatched agent panicked", "panic", r)
			}
		}()

		start := time.Now()
		if err := agent.Handle(runCtx, req); err != nil {
			log.Warn("dispatched agent failed", "error", err, "elapsed", time.Since(start))
			return
		}
		log.Debug("dispatched agent finished", "elapsed", time.Since(start))
	}()

	log.Debug("dispatched")
	return nil
}

// Wait blocks until in-flight dispatches finish or ctx is done.
func (d *AsyncDispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
