package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"DailyCast/internal/domain"
)

const (
	defaultTimezone      = "UTC"
	configPathEnv        = "DAILYCAST_CONFIG"
	databaseDSNEnv       = "DATABASE_DSN"
	anthropicAPIKeyEnv   = "ANTHROPIC_API_KEY"
	openAIAPIKeyEnv      = "OPENAI_API_KEY"
	geminiAPIKeyEnv      = "GEMINI_API_KEY"
	llmModelEnv          = "LLM_MODEL"
	elevenLabsAPIKeyEnv  = "ELEVENLABS_API_KEY"
	buzzsproutAPIKeyEnv  = "BUZZSPROUT_API_KEY"
	buzzsproutPodcastEnv = "BUZZSPROUT_PODCAST_ID"
	telegramTokenEnv     = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv    = "TELEGRAM_CHAT_ID"
	telegramSecretEnv    = "TELEGRAM_WEBHOOK_SECRET"
	automationAPIKeyEnv  = "N8N_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Sources    []domain.Source  `yaml:"sources"`
	Show       ShowConfig       `yaml:"show"`
	Prompts    PromptConfig     `yaml:"prompts"`
	LLM        LLMConfig        `yaml:"llm"`
	Speech     SpeechConfig     `yaml:"speech"`
	Hosting    HostingConfig    `yaml:"hosting"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Automation AutomationConfig `yaml:"automation"`
	Budget     map[string]any   `yaml:"budget"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Retry      RetryConfig      `yaml:"retry"`
}

// LoggingConfig selects verbosity and handler format ("auto", "text", "json").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines when the daily pipeline should run.
type SchedulerConfig struct {
	Hour     int            `yaml:"hour"`
	Minute   int            `yaml:"minute"`
	Timezone string         `yaml:"timezone"`
	LockPath string         `yaml:"lockPath"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// IngestConfig tunes the ingestion engine.
type IngestConfig struct {
	MaxAge            time.Duration `yaml:"maxAge"`
	FetchTimeout      time.Duration `yaml:"fetchTimeout"`
	MaxRedirects      int           `yaml:"maxRedirects"`
	Concurrency       int           `yaml:"concurrency"`
	HighVolumeSource  string        `yaml:"highVolumeSource"`
	HighVolumeMinimum int           `yaml:"highVolumeMinScore"`
	UserAgent         string        `yaml:"userAgent"`
}

// ShowConfig describes the show format handed to the writer and the segmenter.
type ShowConfig struct {
	Title            string               `yaml:"title"`
	Slug             string               `yaml:"slug"`
	IntroPath        string               `yaml:"introPath"`
	EpisodeLengthMin int                  `yaml:"episodeLengthMinutes"`
	TargetWordCount  int                  `yaml:"targetWordCount"`
	WordsPerMinute   int                  `yaml:"wordsPerMinute"`
	Segments         []domain.ShowSegment `yaml:"segments"`
	Hosts            []domain.Host        `yaml:"hosts"`
	DefaultTitle     string               `yaml:"defaultTitle"`
	SynthesisWorkers int                  `yaml:"synthesisWorkers"`
}

// PromptConfig points at system prompt files for each agent.
type PromptConfig struct {
	Curator   string `yaml:"curator"`
	Writer    string `yaml:"writer"`
	Concierge string `yaml:"concierge"`
	CFO       string `yaml:"cfo"`
	Rotation  string `yaml:"rotation"`
}

// LLMConfig defines how to contact the language-model service.
type LLMConfig struct {
	Provider  string        `yaml:"provider"`
	Endpoint  string        `yaml:"endpoint"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"apiKey"`
	MaxTokens int           `yaml:"maxTokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SpeechConfig defines the text-to-speech service.
type SpeechConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	APIKey          string        `yaml:"apiKey"`
	ModelID         string        `yaml:"modelId"`
	Stability       float64       `yaml:"stability"`
	SimilarityBoost float64       `yaml:"similarityBoost"`
	Timeout         time.Duration `yaml:"timeout"`
}

// HostingConfig defines the podcast hosting upload target.
type HostingConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	PodcastID string        `yaml:"podcastId"`
	APIKey    string        `yaml:"apiKey"`
	Private   bool          `yaml:"private"`
	Timeout   time.Duration `yaml:"timeout"`
}

// TelegramConfig wires all data required to send and receive messages.
type TelegramConfig struct {
	BotToken      string `yaml:"botToken"`
	ChatID        string `yaml:"chatId"`
	WebhookSecret string `yaml:"webhookSecret"`
	Endpoint      string `yaml:"endpoint"`
}

// AutomationConfig describes the workflow host and the circuit-breaker registry.
type AutomationConfig struct {
	Endpoint string                 `yaml:"endpoint"`
	APIKey   string                 `yaml:"apiKey"`
	Registry []domain.PipelineEntry `yaml:"registry"`
	Routes   map[string]string      `yaml:"routes"`
	Fallback string                 `yaml:"fallbackRoute"`
}

// StorageConfig selects the run-log backend ("file", "sqlite", "postgres").
type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	LogDir string `yaml:"logDir"`
}

// ServerConfig configures the inbound webhook listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RetryConfig is the retry policy applied to outbound service calls.
type RetryConfig struct {
	Attempts  int           `yaml:"attempts"`
	BaseDelay time.Duration `yaml:"baseDelay"`
	MaxDelay  time.Duration `yaml:"maxDelay"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(configPathEnv))
}

// LoadFile is Load with an explicit path; an empty path uses defaults only.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

// ActiveSources returns the sources flagged active, in declaration order.
func (c Config) ActiveSources() []domain.Source {
	active := make([]domain.Source, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.Active {
			active = append(active, src)
		}
	}
	return active
}

// Format converts the show section into the domain description used by the agents.
func (s ShowConfig) Format() domain.ShowFormat {
	return domain.ShowFormat{
		Title:                s.Title,
		Slug:                 s.Slug,
		EpisodeLengthMinutes: s.EpisodeLengthMin,
		TargetWordCount:      s.TargetWordCount,
		WordsPerMinute:       s.WordsPerMinute,
		Segments:             s.Segments,
		Hosts:                s.Hosts,
		DefaultTitle:         s.DefaultTitle,
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv(telegramSecretEnv); v != "" {
		c.Telegram.WebhookSecret = v
	}

	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv(openAIAPIKeyEnv)
		case "gemini":
			c.LLM.APIKey = os.Getenv(geminiAPIKeyEnv)
		default:
			c.LLM.APIKey = os.Getenv(anthropicAPIKeyEnv)
		}
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv(elevenLabsAPIKeyEnv); v != "" {
		c.Speech.APIKey = v
	}

	if v := os.Getenv(buzzsproutAPIKeyEnv); v != "" {
		c.Hosting.APIKey = v
	}
	if v := os.Getenv(buzzsproutPodcastEnv); v != "" {
		c.Hosting.PodcastID = v
	}

	if v := os.Getenv(automationAPIKeyEnv); v != "" {
		c.Automation.APIKey = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}
