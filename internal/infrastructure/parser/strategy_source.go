package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
	"DailyCast/internal/scanner"
)

const (
	StatusOK      = "ok"
	StatusPartial = "partial"
	StatusFailed  = "error"
)

// IngestOptions controls staleness and the high-volume source filter.
type IngestOptions struct {
	MaxAge             time.Duration
	Concurrency        int
	HighVolumeSource   string
	HighVolumeMinScore int
}

type feedFetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// StrategySource implements StorySource via registered feed scanners.
type StrategySource struct {
	registry *scanner.Registry
	fetcher  feedFetcher
	opts     IngestOptions
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.StorySource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with a fetcher.
func NewStrategySource(reg *scanner.Registry, fetcher feedFetcher, opts IngestOptions, log *slog.Logger) *StrategySource {
	if opts.MaxAge <= 0 {
		opts.MaxAge = 36 * time.Hour
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.HighVolumeMinScore <= 0 {
		opts.HighVolumeMinScore = 100
	}
	return &StrategySource{
		registry: reg,
		fetcher:  fetcher,
		opts:     opts,
		logger:   log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ingest fetches every active source concurrently. A failing source is
// reported and skipped; it never fails the whole pass.
func (s *StrategySource) Ingest(ctx context.Context, sources []domain.Source) (domain.IngestResult, error) {
	if s.registry == nil || s.fetcher == nil {
		return domain.IngestResult{}, errors.New("strategy source is not configured")
	}

	now := s.now()
	active := make([]domain.Source, 0, len(sources))
	for _, src := range sources {
		if src.Active {
			active = append(active, src)
		}
	}
	s.debug("ingest", "sources", len(active), "max_age", s.opts.MaxAge)

	perSource := make([][]domain.Story, len(active))
	reports := make([]domain.SourceReport, len(active))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, src := range active {
		g.Go(func() error {
			perSource[i], reports[i] = s.scanSource(gctx, src, now)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.IngestResult{}, err
	}

	stories := mergeStories(perSource)
	s.debug("ingest done", "stories", len(stories))

	return domain.IngestResult{
		Stories:   stories,
		Total:     len(stories),
		FetchedAt: now,
		Reports:   reports,
	}, nil
}

func (s *StrategySource) scanSource(ctx context.Context, src domain.Source, now time.Time) ([]domain.Story, domain.SourceReport) {
	report := domain.SourceReport{Source: src.Name, URL: src.URL, Status: StatusOK}

	fail := func(err error) ([]domain.Story, domain.SourceReport) {
		report.Status = StatusFailed
		report.Error = err.Error()
		s.warn("source skipped", "source", src.Name, "error", err)
		return nil, report
	}

	strategy, err := s.registry.Resolve(src.Type)
	if err != nil {
		return fail(fmt.Errorf("source %s: %w", src.Name, err))
	}

	fetched, err := s.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			report.HTTPStatus = fetchErr.StatusCode
			report.BodyPreview = fetchErr.Preview
		}
		return fail(err)
	}
	report.HTTPStatus = fetched.StatusCode
	report.BodyLength = len(fetched.Body)
	report.BodyPreview = fetched.Preview

	candidates, err := strategy.Scan(ctx, scanner.Request{Source: src, Body: fetched.Body, FetchedAt: now})
	if err != nil {
		if len(candidates) == 0 {
			return fail(err)
		}
		report.Status = StatusPartial
		report.Error = err.Error()
		s.warn("source truncated", "source", src.Name, "kept", len(candidates), "error", err)
	}
	report.Before = len(candidates)

	stories := s.filter(src, candidates, now)
	report.After = len(stories)
	s.debug("source scanned", "source", src.Name, "before", report.Before, "after", report.After)

	return stories, report
}

func (s *StrategySource) filter(src domain.Source, candidates []domain.Candidate, now time.Time) []domain.Story {
	highVolume := s.opts.HighVolumeSource != "" && src.Name == s.opts.HighVolumeSource
	minScore := s.opts.HighVolumeMinScore
	if src.MinScore > 0 {
		minScore = src.MinScore
	}

	stories := make([]domain.Story, 0, len(candidates))
	for _, c := range candidates {
		if now.Sub(c.Published) > s.opts.MaxAge {
			continue
		}
		if highVolume {
			if c.Score < minScore || !matchesKeyword(c.Title+" "+c.Description, src.Keywords) {
				continue
			}
		}
		stories = append(stories, toStory(src, c))
	}
	return stories
}

func toStory(src domain.Source, c domain.Candidate) domain.Story {
	story := domain.Story{
		Title:       c.Title,
		URL:         c.Link,
		Description: c.Description,
		Published:   c.Published,
		Source:      src.Name,
		Tier:        src.Tier,
	}
	if c.Score > 0 {
		score := c.Score
		story.Score = &score
	}
	return story
}

func matchesKeyword(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// mergeStories dedups by URL in source-declaration order, then ranks by
// tier ascending and recency descending.
func mergeStories(perSource [][]domain.Story) []domain.Story {
	seen := map[string]struct{}{}
	var merged []domain.Story
	for _, stories := range perSource {
		for _, story := range stories {
			if story.URL == "" {
				continue
			}
			if _, ok := seen[story.URL]; ok {
				continue
			}
			seen[story.URL] = struct{}{}
			merged = append(merged, story)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Tier != merged[j].Tier {
			return merged[i].Tier < merged[j].Tier
		}
		return merged[i].Published.After(merged[j].Published)
	})

	if merged == nil {
		merged = []domain.Story{}
	}
	return merged
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
