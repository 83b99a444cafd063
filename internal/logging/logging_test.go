package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewToJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewTo(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("run started", "run_id", "abc")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["msg"] != "run started" || entry["run_id"] != "abc" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestAutoFormatFallsBackToJSONForNonTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if got := resolveFormat(&buf, "auto"); got != "json" {
		t.Fatalf("resolveFormat = %q, want json", got)
	}
	if got := resolveFormat(&buf, "text"); got != "text" {
		t.Fatalf("resolveFormat = %q, want text", got)
	}
}

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		"WARNING": slog.LevelWarn,
		" info ":  slog.LevelInfo,
		"":        slog.LevelDebug,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}
