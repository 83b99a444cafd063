package config

import (
	"time"

	"DailyCast/internal/domain"
)

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "auto"},
		Scheduler: SchedulerConfig{Hour: 3, Minute: 0, Timezone: defaultTimezone, LockPath: "/tmp/dailycast.lock", location: tz},
		Ingest: IngestConfig{
			MaxAge:            36 * time.Hour,
			FetchTimeout:      15 * time.Second,
			MaxRedirects:      5,
			Concurrency:       4,
			HighVolumeSource:  "Hacker News",
			HighVolumeMinimum: 100,
			UserAgent:         "Mozilla/5.0 (compatible; DailyCast/1.0)",
		},
		Show: ShowConfig{
			Title:            "Circuit Breakers",
			Slug:             "circuit-breakers",
			IntroPath:        "/assets/intro.mp3",
			EpisodeLengthMin: 10,
			TargetWordCount:  1500,
			WordsPerMinute:   150,
			DefaultTitle:     "Circuit Breakers Daily",
			SynthesisWorkers: 4,
			Segments: []domain.ShowSegment{
				{Name: "cold_open", Minutes: 1},
				{Name: "headlines", Minutes: 6},
				{Name: "deep_dive_tease", Minutes: 2},
				{Name: "sign_off", Minutes: 1},
			},
			Hosts: []domain.Host{
				{Tag: "HANS", Name: "Hans"},
				{Tag: "FLINT", Name: "Flint"},
			},
		},
		Prompts: PromptConfig{
			Curator:   "prompts/curator-agent.md",
			Writer:    "prompts/writer-agent.md",
			Concierge: "prompts/concierge-agent.md",
			CFO:       "prompts/cfo-agent.md",
			Rotation:  "prompts/source-rotation-agent.md",
		},
		LLM: LLMConfig{
			Provider:  "anthropic",
			Endpoint:  "https://api.anthropic.com/v1/messages",
			Model:     "claude-sonnet-4-6",
			MaxTokens: 4096,
			Timeout:   2 * time.Minute,
		},
		Speech: SpeechConfig{
			Endpoint:        "https://api.elevenlabs.io/v1/text-to-speech",
			ModelID:         "eleven_multilingual_v2",
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Timeout:         time.Minute,
		},
		Hosting: HostingConfig{
			Endpoint: "https://www.buzzsprout.com/api",
			Timeout:  5 * time.Minute,
		},
		Telegram: TelegramConfig{Endpoint: "https://api.telegram.org"},
		Automation: AutomationConfig{
			Endpoint: "http://localhost:5678/api/v1",
			Registry: []domain.PipelineEntry{
				{Name: "daily-pipeline"},
				{Name: "concierge"},
				{Name: "growth"},
			},
			Routes:   map[string]string{"cfo": "cfo", "source_rotation": "source_rotation"},
			Fallback: "source_rotation",
		},
		Budget:  map[string]any{"monthly_limit_usd": 50, "alert_threshold_pct": 80},
		Storage: StorageConfig{Driver: "file", LogDir: "/logs"},
		Server:  ServerConfig{Addr: ":8080"},
		Retry:   RetryConfig{Attempts: 1, BaseDelay: time.Second, MaxDelay: 10 * time.Second},
		Sources: []domain.Source{
			{Name: "Hacker News", URL: "https://hnrss.org/frontpage", Type: "rss", Tier: 2, Active: true,
				Keywords: []string{"ai", "llm", "openai", "anthropic", "model"}},
			{Name: "The Verge AI", URL: "https://www.theverge.com/rss/ai-artificial-intelligence/index.xml", Type: "atom", Tier: 1, Active: true},
		},
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Scheduler.Hour != 0 || override.Scheduler.Minute != 0 {
		base.Scheduler.Hour = override.Scheduler.Hour
		base.Scheduler.Minute = override.Scheduler.Minute
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.LockPath != "" {
		base.Scheduler.LockPath = override.Scheduler.LockPath
	}

	base.Ingest = mergeIngest(base.Ingest, override.Ingest)

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	base.Show = mergeShow(base.Show, override.Show)

	if override.Prompts.Curator != "" {
		base.Prompts.Curator = override.Prompts.Curator
	}
	if override.Prompts.Writer != "" {
		base.Prompts.Writer = override.Prompts.Writer
	}
	if override.Prompts.Concierge != "" {
		base.Prompts.Concierge = override.Prompts.Concierge
	}
	if override.Prompts.CFO != "" {
		base.Prompts.CFO = override.Prompts.CFO
	}
	if override.Prompts.Rotation != "" {
		base.Prompts.Rotation = override.Prompts.Rotation
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = override.LLM.Provider
		base.LLM.Endpoint = ""
	}
	if override.LLM.Endpoint != "" {
		base.LLM.Endpoint = override.LLM.Endpoint
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.MaxTokens > 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}

	if override.Speech.Endpoint != "" {
		base.Speech.Endpoint = override.Speech.Endpoint
	}
	if override.Speech.APIKey != "" {
		base.Speech.APIKey = override.Speech.APIKey
	}
	if override.Speech.ModelID != "" {
		base.Speech.ModelID = override.Speech.ModelID
	}
	if override.Speech.Stability > 0 {
		base.Speech.Stability = override.Speech.Stability
	}
	if override.Speech.SimilarityBoost > 0 {
		base.Speech.SimilarityBoost = override.Speech.SimilarityBoost
	}
	if override.Speech.Timeout > 0 {
		base.Speech.Timeout = override.Speech.Timeout
	}

	if override.Hosting.Endpoint != "" {
		base.Hosting.Endpoint = override.Hosting.Endpoint
	}
	if override.Hosting.PodcastID != "" {
		base.Hosting.PodcastID = override.Hosting.PodcastID
	}
	if override.Hosting.APIKey != "" {
		base.Hosting.APIKey = override.Hosting.APIKey
	}
	base.Hosting.Private = base.Hosting.Private || override.Hosting.Private
	if override.Hosting.Timeout > 0 {
		base.Hosting.Timeout = override.Hosting.Timeout
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}
	if override.Telegram.WebhookSecret != "" {
		base.Telegram.WebhookSecret = override.Telegram.WebhookSecret
	}
	if override.Telegram.Endpoint != "" {
		base.Telegram.Endpoint = override.Telegram.Endpoint
	}

	if override.Automation.Endpoint != "" {
		base.Automation.Endpoint = override.Automation.Endpoint
	}
	if override.Automation.APIKey != "" {
		base.Automation.APIKey = override.Automation.APIKey
	}
	if len(override.Automation.Registry) > 0 {
		base.Automation.Registry = override.Automation.Registry
	}
	if len(override.Automation.Routes) > 0 {
		base.Automation.Routes = override.Automation.Routes
	}
	if override.Automation.Fallback != "" {
		base.Automation.Fallback = override.Automation.Fallback
	}

	if len(override.Budget) > 0 {
		base.Budget = override.Budget
	}

	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}
	if override.Storage.LogDir != "" {
		base.Storage.LogDir = override.Storage.LogDir
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}

	if override.Retry.Attempts > 0 {
		base.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.BaseDelay > 0 {
		base.Retry.BaseDelay = override.Retry.BaseDelay
	}
	if override.Retry.MaxDelay > 0 {
		base.Retry.MaxDelay = override.Retry.MaxDelay
	}

	return base
}

func mergeIngest(base, override IngestConfig) IngestConfig {
	if override.MaxAge > 0 {
		base.MaxAge = override.MaxAge
	}
	if override.FetchTimeout > 0 {
		base.FetchTimeout = override.FetchTimeout
	}
	if override.MaxRedirects > 0 {
		base.MaxRedirects = override.MaxRedirects
	}
	if override.Concurrency > 0 {
		base.Concurrency = override.Concurrency
	}
	if override.HighVolumeSource != "" {
		base.HighVolumeSource = override.HighVolumeSource
	}
	if override.HighVolumeMinimum > 0 {
		base.HighVolumeMinimum = override.HighVolumeMinimum
	}
	if override.UserAgent != "" {
		base.UserAgent = override.UserAgent
	}
	return base
}

func mergeShow(base, override ShowConfig) ShowConfig {
	if override.Title != "" {
		base.Title = override.Title
	}
	if override.Slug != "" {
		base.Slug = override.Slug
	}
	if override.IntroPath != "" {
		base.IntroPath = override.IntroPath
	}
	if override.EpisodeLengthMin > 0 {
		base.EpisodeLengthMin = override.EpisodeLengthMin
	}
	if override.TargetWordCount > 0 {
		base.TargetWordCount = override.TargetWordCount
	}
	if override.WordsPerMinute > 0 {
		base.WordsPerMinute = override.WordsPerMinute
	}
	if len(override.Segments) > 0 {
		base.Segments = override.Segments
	}
	if len(override.Hosts) > 0 {
		base.Hosts = override.Hosts
	}
	if override.DefaultTitle != "" {
		base.DefaultTitle = override.DefaultTitle
	}
	if override.SynthesisWorkers > 0 {
		base.SynthesisWorkers = override.SynthesisWorkers
	}
	return base
}
