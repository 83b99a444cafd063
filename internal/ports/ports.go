package ports

import (
	"context"
	"time"

	"DailyCast/internal/domain"
)

// SourceCatalog lists the configured feeds.
type SourceCatalog interface {
	Sources(ctx context.Context) ([]domain.Source, error)
}

// StorySource pulls fresh stories from the configured feeds.
type StorySource interface {
	Ingest(ctx context.Context, sources []domain.Source) (domain.IngestResult, error)
}

// LanguageModel issues one completion and returns the raw response text.
type LanguageModel interface {
	Complete(ctx context.Context, prompt domain.Prompt) (string, error)
}

// SpeechSynthesizer turns one speaker line into encoded audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, line domain.SpeakerLine) ([]byte, error)
}

// AssetStore provides static show assets such as the intro clip.
type AssetStore interface {
	Intro(ctx context.Context) ([]byte, error)
}

// Publisher uploads an assembled episode to the hosting service.
type Publisher interface {
	Publish(ctx context.Context, audio domain.EpisodeAudio, script domain.EpisodeScript) (domain.PublishedEpisode, error)
}

// Notifier delivers chat messages to the operator.
type Notifier interface {
	SendMessage(ctx context.Context, msg domain.ChatMessage) error
}

// RunLog persists one run record per calendar date.
type RunLog interface {
	Save(ctx context.Context, rec domain.RunRecord) error
	Get(ctx context.Context, date string) (domain.RunRecord, bool, error)
}

// Activator toggles a dependent pipeline on or off.
type Activator interface {
	SetActive(ctx context.Context, entry domain.PipelineEntry, active bool) error
}

// Agent handles a dispatched operator or pipeline request.
type Agent interface {
	Handle(ctx context.Context, req domain.AgentRequest) error
}

// Dispatcher starts a named agent without waiting for its outcome.
type Dispatcher interface {
	Dispatch(ctx context.Context, target string, req domain.AgentRequest) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
