package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"DailyCast/internal/domain"
)

// Request carries a fetched feed body and the source it came from.
type Request struct {
	Source    domain.Source
	Body      []byte
	FetchedAt time.Time
}

// Scanner normalizes one feed format (RSS, Atom, etc.) into candidates.
//
// A scanner may return a partial result together with an error when the
// document breaks off mid-stream; entries decoded before the break are valid.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.Candidate, error)
}

// Registry keeps a mapping from feed types to their normalizers.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry pre-filled with the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[strings.ToLower(scanner.Name())] = scanner
}

// Resolve returns a scanner by feed type or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[strings.ToLower(strings.TrimSpace(name))]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
