package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
)

// FileAssets serves the optional intro jingle from disk.
type FileAssets struct {
	introPath string
}

var _ ports.AssetStore = (*FileAssets)(nil)

func NewFileAssets(introPath string) *FileAssets {
	return &FileAssets{introPath: introPath}
}

// Intro returns nil without error when no intro file is installed.
func (a *FileAssets) Intro(ctx context.Context) ([]byte, error) {
	if a.introPath == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(a.introPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read intro %s: %w", a.introPath, err)
	}
	return data, nil
}

// StaticCatalog serves the configured source list.
type StaticCatalog struct {
	sources []domain.Source
}

var _ ports.SourceCatalog = (*StaticCatalog)(nil)

func NewStaticCatalog(sources []domain.Source) *StaticCatalog {
	return &StaticCatalog{sources: append([]domain.Source(nil), sources...)}
}

// Sources returns a copy so callers cannot mutate the configuration.
func (c *StaticCatalog) Sources(ctx context.Context) ([]domain.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Source, len(c.sources))
	copy(out, c.sources)
	return out, nil
}
