package automation

import (
	"context"
	"errors"
	"sync"

	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
)

// Switchboard holds the in-process activation flag of each pipeline.
// Unknown names are active. State is not persisted across restarts.
type Switchboard struct {
	mu     sync.RWMutex
	paused map[string]bool
}

var _ ports.Activator = (*Switchboard)(nil)

func NewSwitchboard() *Switchboard {
	return &Switchboard{paused: make(map[string]bool)}
}

// SetActive records the flag for entry.Name.
func (s *Switchboard) SetActive(_ context.Context, entry domain.PipelineEntry, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		delete(s.paused, entry.Name)
	} else {
		s.paused[entry.Name] = true
	}
	return nil
}

// Active reports whether name may run.
func (s *Switchboard) Active(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.paused[name]
}

// Chain applies every activator in order and joins their failures, so a
// remote outage still flips the local switch.
type Chain []ports.Activator

var _ ports.Activator = Chain(nil)

func (c Chain) SetActive(ctx context.Context, entry domain.PipelineEntry, active bool) error {
	var errs []error
	for _, a := range c {
		if a == nil {
			continue
		}
		if err := a.SetActive(ctx, entry, active); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
