package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"DailyCast/internal/config"
)

// Prompts holds the system prompt of every agent.
type Prompts struct {
	Curator   string
	Writer    string
	Concierge string
	CFO       string
	Rotation  string
}

const (
	builtinCurator = `You are the news curator for a daily AI news podcast. From the raw feed, select the stories worth covering today, ranked by importance.
Reply with a single JSON object in a fenced json block with keys: date, headlines (array of {title, url, source, angle}), deep_dives (array of {tease, url}), skipped_count.`

	builtinWriter = `You write the script for a two-host daily news podcast. Every spoken line starts with the host tag followed by a colon (for example "HANS:" or "FLINT:"), one line per turn, no stage directions.
After the script, add a fenced json block with keys: title, description, deep_dives (array of {tease, url}), story_count.`

	builtinConcierge = `You are the operator concierge for a podcast production system. Classify each operator message.
Reply with JSON: {"route": "self" | "cfo" | "source_rotation", "action": string, "response": string, "requires_confirmation": bool}.
Use "self" when you can answer directly, "cfo" for cost, budget, pause or resume requests, "source_rotation" for feed and source questions.`

	builtinCFO = `You are the cost guardian of a podcast production system. Review the budget configuration and today's run.
Reply with JSON: {"action": "pause" | "resume" | "none", "telegram_message": string, "cost_summary": object, "anomaly_detected": bool, "anomaly_details": object|null}.`

	builtinRotation = `You review the news sources of a daily AI podcast and recommend additions or removals.
Reply with JSON: {"recommendation": "no_change" | "add" | "remove" | "swap", "telegram_message": string, "analysis": object, "new_sources_array": array|null}.`
)

// LoadPrompts reads each configured prompt file. A missing file falls back
// to the built-in prompt; any other read error is returned.
func LoadPrompts(cfg config.PromptConfig, logger *slog.Logger) (Prompts, error) {
	var p Prompts
	entries := []struct {
		name     string
		path     string
		fallback string
		dst      *string
	}{
		{"curator", cfg.Curator, builtinCurator, &p.Curator},
		{"writer", cfg.Writer, builtinWriter, &p.Writer},
		{"concierge", cfg.Concierge, builtinConcierge, &p.Concierge},
		{"cfo", cfg.CFO, builtinCFO, &p.CFO},
		{"rotation", cfg.Rotation, builtinRotation, &p.Rotation},
	}
	for _, e := range entries {
		text, err := readPrompt(e.path)
		if err != nil {
			return Prompts{}, fmt.Errorf("load %s prompt: %w", e.name, err)
		}
		if text == "" {
			if logger != nil && e.path != "" {
				logger.Debug("prompt file missing, using built-in", "agent", e.name, "path", e.path)
			}
			text = e.fallback
		}
		*e.dst = text
	}
	return p, nil
}

func readPrompt(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
