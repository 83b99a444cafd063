package usecase

import (
	"context"
	"log/slog"

	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
)

// EntryResult is the outcome of toggling one registry entry.
type EntryResult struct {
	Entry domain.PipelineEntry
	Err   error
}

// BreakerReport lists every attempted toggle in registry order.
type BreakerReport struct {
	Action  domain.ActivationAction
	Results []EntryResult
}

// Failed counts entries whose toggle returned an error.
func (r BreakerReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Breaker pauses or resumes the dependent pipelines in their declared order.
type Breaker struct {
	activator ports.Activator
	registry  []domain.PipelineEntry
	logger    *slog.Logger
}

// NewBreaker copies the registry; it is never mutated afterwards.
func NewBreaker(activator ports.Activator, registry []domain.PipelineEntry, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	entries := make([]domain.PipelineEntry, len(registry))
	copy(entries, registry)
	return &Breaker{activator: activator, registry: entries, logger: logger}
}

// Registry returns the entries in declared order.
func (b *Breaker) Registry() []domain.PipelineEntry {
	out := make([]domain.PipelineEntry, len(b.registry))
	copy(out, b.registry)
	return out
}

// Apply walks the whole registry for pause or resume. A failing entry is
// logged and skipped; Apply itself never fails.
func (b *Breaker) Apply(ctx context.Context, action domain.ActivationAction) BreakerReport {
	report := BreakerReport{Action: action}

	var active bool
	switch action {
	case domain.ActionPause:
		active = false
	case domain.ActionResume:
		active = true
	case domain.ActionNone, "":
		return report
	default:
		b.logger.Warn("unknown breaker action ignored", "action", action)
		return report
	}

	if b.activator == nil {
		b.logger.Warn("breaker has no activator", "action", action)
		return report
	}

	for _, entry := range b.registry {
		err := b.activator.SetActive(ctx, entry, active)
		if err != nil {
			b.logger.Warn("pipeline toggle failed", "pipeline", entry.Name, "action", action, "error", err)
		} else {
			b.logger.Info("pipeline toggled", "pipeline", entry.Name, "active", active)
		}
		report.Results = append(report.Results, EntryResult{Entry: entry, Err: err})
	}
	return report
}
