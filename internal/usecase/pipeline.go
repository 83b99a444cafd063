package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"DailyCast/internal/digest"
	"DailyCast/internal/domain"
	"DailyCast/internal/ports"
)

// ErrRunInProgress is returned when another run holds the pipeline lock.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// RunLock guards against overlapping runs across processes.
type RunLock interface {
	TryLock() (bool, error)
	Unlock() error
}

// PipelineDeps wires all driven adapters into the daily pipeline.
type PipelineDeps struct {
	Catalog     ports.SourceCatalog
	Source      ports.StorySource
	Curator     *Curator
	Writer      *Writer
	Synthesizer ports.SpeechSynthesizer
	Assets      ports.AssetStore
	Publisher   ports.Publisher
	RunLog      ports.RunLog
	Notifier    ports.Notifier
	Dispatcher  ports.Dispatcher
	Digest      *digest.Formatter
	Lock        RunLock

	Show             domain.ShowFormat
	DigestChatID     string
	SynthesisWorkers int
	// DownstreamTarget is the agent fired after a successful run.
	DownstreamTarget string
	Logger           *slog.Logger
}

// Pipeline implements the daily episode workflow.
type Pipeline struct {
	deps PipelineDeps
	mu   sync.Mutex
	now  func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.SynthesisWorkers <= 0 {
		deps.SynthesisWorkers = 4
	}
	return &Pipeline{deps: deps, now: func() time.Time { return time.Now().UTC() }}
}

// Run executes one episode for day. Any stage error before the run record
// is written aborts the run and leaves no record behind.
func (p *Pipeline) Run(ctx context.Context, day time.Time) (domain.RunRecord, error) {
	if !p.mu.TryLock() {
		return domain.RunRecord{}, ErrRunInProgress
	}
	defer p.mu.Unlock()

	if p.deps.Lock != nil {
		ok, err := p.deps.Lock.TryLock()
		if err != nil {
			return domain.RunRecord{}, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			return domain.RunRecord{}, ErrRunInProgress
		}
		defer func() { _ = p.deps.Lock.Unlock() }()
	}

	log := p.deps.Logger.With("run_id", uuid.NewString(), "date", day.Format(time.DateOnly))
	started := p.now()
	log.Info("run started")

	rec, err := p.run(ctx, day, log)
	if err != nil {
		stage := StageFailed
		var stageErr *StageError
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		log.Error("run failed", "stage", stage, "error", err, "elapsed", p.now().Sub(started))
		return domain.RunRecord{}, err
	}

	log.Info("run finished", "episode_id", rec.EpisodeID, "elapsed", p.now().Sub(started))
	return rec, nil
}

func (p *Pipeline) run(ctx context.Context, day time.Time, log *slog.Logger) (domain.RunRecord, error) {
	sources, err := p.deps.Catalog.Sources(ctx)
	if err != nil {
		return domain.RunRecord{}, stageErr(StageFetchSources, err)
	}

	ingest, err := p.deps.Source.Ingest(ctx, sources)
	if err != nil {
		// Ingestion isolates per-source failures; only cancellation gets here.
		return domain.RunRecord{}, stageErr(StageIngest, err)
	}
	log.Info("ingested", "sources", len(sources), "stories", ingest.Total)

	brief, err := p.deps.Curator.Curate(ctx, day, ingest)
	if err != nil {
		return domain.RunRecord{}, stageErr(StageCurate, err)
	}

	script, err := p.deps.Writer.Write(ctx, brief)
	if err != nil {
		return domain.RunRecord{}, stageErr(StageWrite, err)
	}
	log.Info("script written", "title", script.Title, "story_count", script.StoryCount)

	lines := SegmentScript(script.Script, p.deps.Show.Hosts)
	log.Info("script segmented", "lines", len(lines))

	chunks, err := SynthesizeLines(ctx, p.deps.Synthesizer, lines, p.deps.SynthesisWorkers)
	if err != nil {
		return domain.RunRecord{}, stageErr(StageSynthesize, err)
	}

	audio, err := p.assemble(ctx, day, chunks, len(lines))
	if err != nil {
		return domain.RunRecord{}, stageErr(StageAssemble, err)
	}
	log.Info("episode assembled", "file", audio.FileName, "bytes", audio.Size, "has_intro", audio.HasIntro)

	published, err := p.deps.Publisher.Publish(ctx, audio, script)
	if err != nil {
		return domain.RunRecord{}, stageErr(StagePublish, err)
	}
	log.Info("episode published", "episode_id", published.ID, "audio_url", published.AudioURL)

	p.sendDigest(ctx, script, published, log)

	rec := domain.RunRecord{
		Date:            day.Format(time.DateOnly),
		RunAt:           p.now(),
		EpisodeTitle:    script.Title,
		StoryCount:      script.StoryCount,
		StoriesIngested: ingest.Total,
		EpisodeID:       published.ID,
		AudioURL:        published.AudioURL,
		Status:          domain.RunSuccess,
	}
	if err := p.deps.RunLog.Save(ctx, rec); err != nil {
		return domain.RunRecord{}, stageErr(StageLog, err)
	}

	p.notifyDownstream(ctx, log)
	return rec, nil
}

func (p *Pipeline) assemble(ctx context.Context, day time.Time, chunks []domain.AudioChunk, total int) (domain.EpisodeAudio, error) {
	var intro []byte
	if p.deps.Assets != nil {
		var err error
		intro, err = p.deps.Assets.Intro(ctx)
		if err != nil {
			return domain.EpisodeAudio{}, fmt.Errorf("load intro: %w", err)
		}
	}
	return AssembleEpisode(EpisodeFileName(p.deps.Show.Slug, day), intro, chunks, total)
}

func (p *Pipeline) sendDigest(ctx context.Context, script domain.EpisodeScript, published domain.PublishedEpisode, log *slog.Logger) {
	if p.deps.Notifier == nil || p.deps.Digest == nil {
		return
	}
	msg := domain.ChatMessage{
		ChatID:         p.deps.DigestChatID,
		Text:           p.deps.Digest.Episode(script, published),
		Markdown:       true,
		DisablePreview: true,
	}
	if err := p.deps.Notifier.SendMessage(ctx, msg); err != nil {
		log.Warn("digest not delivered", "error", err)
	}
}

func (p *Pipeline) notifyDownstream(ctx context.Context, log *slog.Logger) {
	if p.deps.Dispatcher == nil || p.deps.DownstreamTarget == "" {
		return
	}
	if err := p.deps.Dispatcher.Dispatch(ctx, p.deps.DownstreamTarget, domain.AgentRequest{ChatID: p.deps.DigestChatID}); err != nil {
		log.Warn("downstream notification failed", "target", p.deps.DownstreamTarget, "error", err)
	}
}
