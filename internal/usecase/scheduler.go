package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"DailyCast/internal/ports"
)

// Gate reports whether a named pipeline is currently switched on.
type Gate interface {
	Active(name string) bool
}

// Scheduler wires the daily driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	gate     Gate
	name     string
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs. When gate is
// non-nil, runs are skipped while the pipeline named name is paused.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, gate Gate, name string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, gate: gate, name: name, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if s.gate != nil && !s.gate.Active(s.name) {
			s.logger.Info("scheduled run skipped: pipeline paused", "pipeline", s.name)
			return
		}
		_, err := s.pipeline.Run(ctx, trigger)
		switch {
		case err == nil:
		case errors.Is(err, ErrRunInProgress):
			s.logger.Warn("scheduled run skipped: previous run still active")
		default:
			s.logger.Error("scheduled run failed", "pipeline", s.name, "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
