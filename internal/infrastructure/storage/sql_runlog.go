package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
)

const runLogTable = "run_log"

var runLogColumns = []string{
	"date", "run_at", "episode_title", "story_count",
	"stories_ingested", "episode_id", "audio_url", "status",
}

const runLogSchema = `CREATE TABLE IF NOT EXISTS run_log (
	date             TEXT PRIMARY KEY,
	run_at           TEXT NOT NULL,
	episode_title    TEXT NOT NULL,
	story_count      INTEGER NOT NULL,
	stories_ingested INTEGER NOT NULL,
	episode_id       TEXT NOT NULL,
	audio_url        TEXT NOT NULL,
	status           TEXT NOT NULL
)`

// SQLRunLog persists run records in Postgres or SQLite, one row per date.
type SQLRunLog struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunLog = (*SQLRunLog)(nil)

// OpenSQLRunLog connects with driver ("postgres" or "sqlite") and creates
// the table when missing.
func OpenSQLRunLog(ctx context.Context, driver, dsn string) (*SQLRunLog, error) {
	if dsn == "" {
		return nil, errors.New("run log dsn is empty")
	}

	var (
		db      *sql.DB
		err     error
		builder sq.StatementBuilderType
	)
	switch driver {
	case "postgres":
		db, err = sql.Open("postgres", dsn)
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	case "sqlite":
		db, err = sql.Open("sqlite", dsn)
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	default:
		return nil, fmt.Errorf("unsupported run log driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
			}
		}
	}

	if _, err := db.ExecContext(ctx, runLogSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create run log table: %w", err)
	}

	return NewSQLRunLog(db, builder), nil
}

// NewSQLRunLog wires an existing sql.DB whose schema is already in place.
func NewSQLRunLog(db *sql.DB, builder sq.StatementBuilderType) *SQLRunLog {
	return &SQLRunLog{db: db, builder: builder}
}

// Close releases the underlying connection pool.
func (r *SQLRunLog) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Save upserts the record for rec.Date.
func (r *SQLRunLog) Save(ctx context.Context, rec domain.RunRecord) error {
	if r.db == nil {
		return errors.New("run log database is nil")
	}

	query := r.builder.Insert(runLogTable).
		Columns(runLogColumns...).
		Values(
			rec.Date,
			rec.RunAt.UTC().Format(time.RFC3339Nano),
			rec.EpisodeTitle,
			rec.StoryCount,
			rec.StoriesIngested,
			rec.EpisodeID,
			rec.AudioURL,
			string(rec.Status),
		).
		Suffix(`ON CONFLICT (date) DO UPDATE
              SET run_at = EXCLUDED.run_at,
                  episode_title = EXCLUDED.episode_title,
                  story_count = EXCLUDED.story_count,
                  stories_ingested = EXCLUDED.stories_ingested,
                  episode_id = EXCLUDED.episode_id,
                  audio_url = EXCLUDED.audio_url,
                  status = EXCLUDED.status`)

	if _, err := query.RunWith(r.db).ExecContext(ctx); err != nil {
		return fmt.Errorf("upsert run record: %w", err)
	}
	return nil
}

// Get loads the record for date; ok is false when that day has none.
func (r *SQLRunLog) Get(ctx context.Context, date string) (domain.RunRecord, bool, error) {
	if r.db == nil {
		return domain.RunRecord{}, false, errors.New("run log database is nil")
	}

	row := r.builder.Select(runLogColumns...).
		From(runLogTable).
		Where(sq.Eq{"date": date}).
		RunWith(r.db).
		QueryRowContext(ctx)

	var (
		rec    domain.RunRecord
		runAt  string
		status string
	)
	err := row.Scan(&rec.Date, &runAt, &rec.EpisodeTitle, &rec.StoryCount,
		&rec.StoriesIngested, &rec.EpisodeID, &rec.AudioURL, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RunRecord{}, false, nil
	}
	if err != nil {
		return domain.RunRecord{}, false, fmt.Errorf("select run record: %w", err)
	}

	rec.RunAt, err = time.Parse(time.RFC3339Nano, runAt)
	if err != nil {
		return domain.RunRecord{}, false, fmt.Errorf("parse run_at %q: %w", runAt, err)
	}
	rec.Status = domain.RunStatus(status)
	return rec, true, nil
}
