package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
)

var dateExpr = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// FileRunLog keeps one JSON document per day under dir (DATE.json).
type FileRunLog struct {
	dir string
}

var _ ports.RunLog = (*FileRunLog)(nil)

// NewFileRunLog creates dir when missing.
func NewFileRunLog(dir string) (*FileRunLog, error) {
	if dir == "" {
		return nil, errors.New("run log directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run log dir: %w", err)
	}
	return &FileRunLog{dir: dir}, nil
}

// Save writes the record atomically, replacing any earlier record for the date.
func (l *FileRunLog) Save(ctx context.Context, rec domain.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := l.path(rec.Date)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, "."+rec.Date+"-*.json")
	if err != nil {
		return fmt.Errorf("create temp run record: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write run record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close run record: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("commit run record: %w", err)
	}
	return nil
}

// Get reads the record for date.
func (l *FileRunLog) Get(ctx context.Context, date string) (domain.RunRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.RunRecord{}, false, err
	}
	path, err := l.path(date)
	if err != nil {
		return domain.RunRecord{}, false, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.RunRecord{}, false, nil
	}
	if err != nil {
		return domain.RunRecord{}, false, fmt.Errorf("read run record: %w", err)
	}

	var rec domain.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.RunRecord{}, false, fmt.Errorf("decode run record %s: %w", path, err)
	}
	return rec, true, nil
}

func (l *FileRunLog) path(date string) (string, error) {
	if !dateExpr.MatchString(date) {
		return "", fmt.Errorf("invalid run date %q", date)
	}
	return filepath.Join(l.dir, date+".json"), nil
}
