// Package extract recovers a JSON value from free-form language-model output.
//
// Models usually wrap their structured answer in a fenced code block, often
// after some conversational preamble, and multi-part answers put prose first
// and the machine-readable payload last. Candidate picks the last fenced
// block, falls back to the first bare object or array, and finally to the
// whole trimmed response.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceExpr = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")
	bareExpr  = regexp.MustCompile(`(?s)(\{.*\}|\[.*\])`)
)

// Error reports that no parseable JSON could be recovered from a response.
type Error struct {
	Snippet string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extract json: %v (payload snippet: %s)", e.Err, e.Snippet)
}

func (e *Error) Unwrap() error { return e.Err }

// Candidate returns the substring of text that most likely holds the JSON payload.
func Candidate(text string) string {
	if fences := fenceExpr.FindAllStringSubmatch(text, -1); len(fences) > 0 {
		return strings.TrimSpace(fences[len(fences)-1][1])
	}
	if bare := bareExpr.FindStringSubmatch(text); bare != nil {
		return strings.TrimSpace(bare[1])
	}
	return strings.TrimSpace(text)
}

// LastFence returns the byte offset where the last fenced block starts, or -1.
func LastFence(text string) int {
	locs := fenceExpr.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return -1
	}
	return locs[len(locs)-1][0]
}

// JSON extracts and validates the payload, returning it verbatim.
func JSON(text string) (json.RawMessage, error) {
	candidate := Candidate(text)
	if !json.Valid([]byte(candidate)) {
		var probe any
		err := json.Unmarshal([]byte(candidate), &probe)
		if err == nil {
			err = fmt.Errorf("invalid json")
		}
		return nil, &Error{Snippet: snippet(candidate), Err: err}
	}
	return json.RawMessage(candidate), nil
}

// Decode extracts the payload and unmarshals it into target.
func Decode(text string, target any) error {
	raw, err := JSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return &Error{Snippet: snippet(string(raw)), Err: err}
	}
	return nil
}

func snippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
