package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"DailyCast/internal/domain"
	"DailyCast/internal/extract"
	"DailyCast/internal/ports"
)

const (
	curatorMaxTokens = 4096
	writerMaxTokens  = 8192
)

// Curator asks the language model to pick the day's stories.
type Curator struct {
	model  ports.LanguageModel
	system string
	show   domain.ShowFormat
}

// NewCurator builds the curation step with its externally supplied system prompt.
func NewCurator(model ports.LanguageModel, systemPrompt string, show domain.ShowFormat) *Curator {
	return &Curator{model: model, system: systemPrompt, show: show}
}

// Curate returns the brief verbatim as JSON; anything unparseable is fatal.
func (c *Curator) Curate(ctx context.Context, day time.Time, ingest domain.IngestResult) (domain.CurationBrief, error) {
	user, err := curatorMessage(day, c.show, ingest.Stories)
	if err != nil {
		return nil, err
	}

	text, err := c.model.Complete(ctx, domain.Prompt{System: c.system, User: user, MaxTokens: curatorMaxTokens})
	if err != nil {
		return nil, fmt.Errorf("curator request: %w", err)
	}

	brief, err := extract.JSON(text)
	if err != nil {
		return nil, fmt.Errorf("curator response: %w", err)
	}
	return domain.CurationBrief(brief), nil
}

func curatorMessage(day time.Time, show domain.ShowFormat, stories []domain.Story) (string, error) {
	format, err := json.MarshalIndent(map[string]any{
		"episode_length_minutes": show.EpisodeLengthMinutes,
		"segments":               show.Segments,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode show format: %w", err)
	}
	if stories == nil {
		stories = []domain.Story{}
	}
	feed, err := json.MarshalIndent(stories, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode feed: %w", err)
	}

	return strings.Join([]string{
		"DATE: " + day.Format(time.DateOnly),
		"",
		"SHOW FORMAT REFERENCE:",
		string(format),
		"",
		fmt.Sprintf("RAW FEED (%d stories, sorted by tier then recency):", len(stories)),
		string(feed),
	}, "\n"), nil
}

// Writer turns a brief into a two-host script plus episode metadata.
type Writer struct {
	model  ports.LanguageModel
	system string
	show   domain.ShowFormat
}

// NewWriter builds the writing step with its externally supplied system prompt.
func NewWriter(model ports.LanguageModel, systemPrompt string, show domain.ShowFormat) *Writer {
	return &Writer{model: model, system: systemPrompt, show: show}
}

// Write requests the script. The metadata block is the last fence of the
// response; the script is everything before it.
func (w *Writer) Write(ctx context.Context, brief domain.CurationBrief) (domain.EpisodeScript, error) {
	user, err := writerMessage(brief, w.show)
	if err != nil {
		return domain.EpisodeScript{}, err
	}

	text, err := w.model.Complete(ctx, domain.Prompt{System: w.system, User: user, MaxTokens: writerMaxTokens})
	if err != nil {
		return domain.EpisodeScript{}, fmt.Errorf("writer request: %w", err)
	}

	script, err := ParseScript(text, w.show.DefaultTitle)
	if err != nil {
		return domain.EpisodeScript{}, fmt.Errorf("writer response: %w", err)
	}
	return script, nil
}

// ParseScript splits a writer response into the spoken script and its metadata.
func ParseScript(text, defaultTitle string) (domain.EpisodeScript, error) {
	metadata, err := extract.JSON(text)
	if err != nil {
		return domain.EpisodeScript{}, err
	}
	fields, err := extract.Object(string(metadata))
	if err != nil {
		return domain.EpisodeScript{}, err
	}

	script := text
	if idx := extract.LastFence(text); idx >= 0 {
		script = text[:idx]
	}

	var dives []domain.DeepDive
	if !fields.Into("deep_dives", &dives) || dives == nil {
		dives = []domain.DeepDive{}
	}

	return domain.EpisodeScript{
		Script:      strings.TrimSpace(script),
		Metadata:    metadata,
		Title:       fields.String(defaultTitle, "episode_title"),
		Description: fields.String("", "episode_description"),
		DeepDives:   dives,
		StoryCount:  fields.Int("story_count", 0),
	}, nil
}

func writerMessage(brief domain.CurationBrief, show domain.ShowFormat) (string, error) {
	briefJSON, err := json.MarshalIndent(json.RawMessage(brief), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode brief: %w", err)
	}
	format, err := json.MarshalIndent(map[string]any{
		"hosts":             show.Hosts,
		"segments":          show.Segments,
		"target_word_count": show.TargetWordCount,
		"words_per_minute":  show.WordsPerMinute,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode show format: %w", err)
	}

	return strings.Join([]string{
		"CURATOR BRIEF:",
		string(briefJSON),
		"",
		"SHOW FORMAT:",
		string(format),
	}, "\n"), nil
}
