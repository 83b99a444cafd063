package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"DailyCast/internal/config"
	"DailyCast/internal/digest"
	"DailyCast/internal/domain"
	"DailyCast/internal/infrastructure/automation"
	"DailyCast/internal/infrastructure/hosting"
	"DailyCast/internal/infrastructure/llm"
	"DailyCast/internal/infrastructure/parser"
	"DailyCast/internal/infrastructure/scheduler"
	"DailyCast/internal/infrastructure/storage"
	"DailyCast/internal/infrastructure/telegram"
	"DailyCast/internal/infrastructure/tts"
	"DailyCast/internal/logging"
	"DailyCast/internal/ports"
	"DailyCast/internal/retry"
	"DailyCast/internal/scanner"
	"DailyCast/internal/server"
	"DailyCast/internal/usecase"
)

// Registry names the in-process switchboard gates on.
const (
	PipelineName  = "daily-pipeline"
	ConciergeName = "concierge"

	targetCFO      = "cfo"
	targetRotation = "source_rotation"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	catalog     *storage.StaticCatalog
	source      *parser.StrategySource
	pipeline    *usecase.Pipeline
	router      *usecase.Router
	breaker     *usecase.Breaker
	dispatcher  *usecase.AsyncDispatcher
	switchboard *automation.Switchboard
	scheduler   *usecase.Scheduler
	server      *server.Server

	closers []io.Closer
}

// NewSource builds only the ingestion engine. It needs no credentials.
func NewSource(cfg config.Config, logger *slog.Logger) *parser.StrategySource {
	if logger == nil {
		logger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	registry := scanner.NewRegistry(parser.NewRSSScanner(), parser.NewAtomScanner())
	fetcher := parser.NewFetcher(nil, parser.FetcherConfig{
		Timeout:      cfg.Ingest.FetchTimeout,
		MaxRedirects: cfg.Ingest.MaxRedirects,
		UserAgent:    cfg.Ingest.UserAgent,
	})
	return parser.NewStrategySource(registry, fetcher, parser.IngestOptions{
		MaxAge:             cfg.Ingest.MaxAge,
		Concurrency:        cfg.Ingest.Concurrency,
		HighVolumeSource:   cfg.Ingest.HighVolumeSource,
		HighVolumeMinScore: cfg.Ingest.HighVolumeMinimum,
	}, logger.With("component", "ingest"))
}

// New builds a fully wired application instance.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	prompts, err := LoadPrompts(cfg.Prompts, baseLogger.With("component", "prompts"))
	if err != nil {
		return nil, err
	}

	policy := retry.Policy{
		Attempts:  cfg.Retry.Attempts,
		BaseDelay: cfg.Retry.BaseDelay,
		MaxDelay:  cfg.Retry.MaxDelay,
	}

	model, err := llm.New(ctx, cfg.LLM, policy)
	if err != nil {
		return nil, fmt.Errorf("language model: %w", err)
	}

	runLog, err := a.openRunLog(ctx)
	if err != nil {
		return nil, err
	}

	show := cfg.Show.Format()
	notifier := telegram.NewNotifier(cfg.Telegram, policy)
	a.catalog = storage.NewStaticCatalog(cfg.Sources)
	a.source = NewSource(cfg, baseLogger)
	a.dispatcher = usecase.NewAsyncDispatcher(0, baseLogger.With("component", "dispatcher"))
	a.switchboard = automation.NewSwitchboard()

	activator := automation.Chain{a.switchboard, automation.NewWorkflowClient(cfg.Automation, policy)}
	a.breaker = usecase.NewBreaker(activator, cfg.Automation.Registry, baseLogger.With("component", "breaker"))

	a.dispatcher.Register(targetCFO, usecase.NewCFOAgent(usecase.CFOAgentDeps{
		Model:         model,
		Notifier:      notifier,
		Breaker:       a.breaker,
		RunLog:        runLog,
		SystemPrompt:  prompts.CFO,
		Budget:        cfg.Budget,
		DefaultChatID: cfg.Telegram.ChatID,
		Location:      cfg.Scheduler.Location(),
		Logger:        baseLogger.With("component", "cfo"),
	}))
	a.dispatcher.Register(targetRotation, usecase.NewRotationAgent(usecase.RotationAgentDeps{
		Model:         model,
		Notifier:      notifier,
		Catalog:       a.catalog,
		SystemPrompt:  prompts.Rotation,
		DefaultChatID: cfg.Telegram.ChatID,
		Logger:        baseLogger.With("component", "rotation"),
	}))

	a.router = usecase.NewRouter(usecase.RouterDeps{
		Model:        model,
		Notifier:     notifier,
		Dispatcher:   a.dispatcher,
		SystemPrompt: prompts.Concierge,
		Routes:       cfg.Automation.Routes,
		Fallback:     cfg.Automation.Fallback,
		Logger:       baseLogger.With("component", "concierge"),
	})

	var lock usecase.RunLock
	if cfg.Scheduler.LockPath != "" {
		lock = flock.New(filepath.Clean(cfg.Scheduler.LockPath))
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Catalog:          a.catalog,
		Source:           a.source,
		Curator:          usecase.NewCurator(model, prompts.Curator, show),
		Writer:           usecase.NewWriter(model, prompts.Writer, show),
		Synthesizer:      tts.NewElevenLabsClient(cfg.Speech, policy),
		Assets:           storage.NewFileAssets(cfg.Show.IntroPath),
		Publisher:        hosting.NewBuzzsproutClient(cfg.Hosting, policy),
		RunLog:           runLog,
		Notifier:         notifier,
		Dispatcher:       a.dispatcher,
		Digest:           digest.New(cfg.Show.Title),
		Lock:             lock,
		Show:             show,
		DigestChatID:     cfg.Telegram.ChatID,
		SynthesisWorkers: cfg.Show.SynthesisWorkers,
		DownstreamTarget: targetCFO,
		Logger:           baseLogger.With("component", "pipeline"),
	})

	driver := scheduler.NewDailyScheduler(cfg.Scheduler.Hour, cfg.Scheduler.Minute, cfg.Scheduler.Location())
	a.scheduler = usecase.NewScheduler(driver, a.pipeline, a.switchboard, PipelineName, baseLogger.With("component", "scheduler"))

	a.server = server.New(server.Deps{
		Commands: a.router,
		Gate:     a.switchboard,
		GateName: ConciergeName,
		Secret:   cfg.Telegram.WebhookSecret,
		Logger:   baseLogger.With("component", "server"),
	})

	return a, nil
}

func (a *Application) openRunLog(ctx context.Context) (ports.RunLog, error) {
	switch a.cfg.Storage.Driver {
	case "", "file":
		l, err := storage.NewFileRunLog(a.cfg.Storage.LogDir)
		if err != nil {
			return nil, fmt.Errorf("run log: %w", err)
		}
		return l, nil
	case "sqlite", "postgres":
		l, err := storage.OpenSQLRunLog(ctx, a.cfg.Storage.Driver, a.cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("run log: %w", err)
		}
		a.closers = append(a.closers, l)
		return l, nil
	default:
		return nil, fmt.Errorf("run log: unsupported driver %q", a.cfg.Storage.Driver)
	}
}

// Run performs a single pipeline execution for today in the scheduler timezone.
func (a *Application) Run(ctx context.Context) (domain.RunRecord, error) {
	rec, err := a.pipeline.Run(ctx, time.Now().In(a.cfg.Scheduler.Location()))
	a.drain(ctx)
	return rec, err
}

// Route handles one operator command and waits for the dispatched agent.
func (a *Application) Route(ctx context.Context, cmd domain.OperatorCommand) (domain.RouteDecision, error) {
	if cmd.ChatID == "" {
		cmd.ChatID = a.cfg.Telegram.ChatID
	}
	decision, err := a.router.Handle(ctx, cmd)
	a.drain(ctx)
	return decision, err
}

// Breaker applies a pause or resume across the registry.
func (a *Application) Breaker(ctx context.Context, action domain.ActivationAction) usecase.BreakerReport {
	return a.breaker.Apply(ctx, action)
}

// Serve starts the daily scheduler and the webhook server until ctx ends.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	serveErr := a.server.ListenAndServe(ctx, a.cfg.Server.Addr)

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	stopErr := a.scheduler.Stop(stopCtx)
	a.drain(stopCtx)
	return errors.Join(serveErr, stopErr)
}

// Close releases storage handles.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (a *Application) drain(ctx context.Context) {
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Minute)
	defer cancel()
	if err := a.dispatcher.Wait(waitCtx); err != nil {
		a.logger.Warn("background agents still running", "error", err)
	}
}
