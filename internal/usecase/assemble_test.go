package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"DailyCast/internal/domain"
)

func TestAssembleEpisodeOrdersByIndex(t *testing.T) {
	t.Parallel()

	chunks := []domain.AudioChunk{
		{Index: 2, Data: []byte("C")},
		{Index: 0, Data: []byte("A")},
		{Index: 1, Data: []byte("B")},
	}
	audio, err := AssembleEpisode("show-2026-10-19.mp3", []byte("INTRO"), chunks, 3)
	if err != nil {
		t.Fatalf("AssembleEpisode returned error: %v", err)
	}
	if string(audio.Data) != "INTROABC" {
		t.Fatalf("data = %q, want INTROABC", audio.Data)
	}
	if audio.Size != len("INTROABC") || audio.LineCount != 3 || !audio.HasIntro {
		t.Fatalf("unexpected audio metadata %+v", audio)
	}
}

func TestAssembleEpisodeWithoutIntro(t *testing.T) {
	t.Parallel()

	audio, err := AssembleEpisode("x.mp3", nil, []domain.AudioChunk{{Index: 0, Data: []byte("A")}}, 1)
	if err != nil {
		t.Fatalf("AssembleEpisode returned error: %v", err)
	}
	if audio.HasIntro || string(audio.Data) != "A" {
		t.Fatalf("unexpected audio %+v", audio)
	}
}

func TestZeroLineScriptAssemblesEmptyEpisode(t *testing.T) {
	t.Parallel()

	lines := SegmentScript("just prose\nno speakers here", testHosts)
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %+v", lines)
	}
	chunks, err := SynthesizeLines(context.Background(), &fakeSynth{}, lines, 4)
	if err != nil {
		t.Fatalf("SynthesizeLines returned error: %v", err)
	}
	audio, err := AssembleEpisode("x.mp3", nil, chunks, len(lines))
	if err != nil {
		t.Fatalf("AssembleEpisode returned error: %v", err)
	}
	if len(audio.Data) != 0 || audio.Size != 0 || audio.LineCount != 0 || audio.HasIntro || audio.FileName != "x.mp3" {
		t.Fatalf("unexpected audio %+v", audio)
	}

	audio, err = AssembleEpisode("x.mp3", []byte("INTRO"), nil, 0)
	if err != nil {
		t.Fatalf("AssembleEpisode with intro returned error: %v", err)
	}
	if string(audio.Data) != "INTRO" || !audio.HasIntro {
		t.Fatalf("unexpected audio %+v", audio)
	}
}

func TestAssembleEpisodeRejectsIncompleteSets(t *testing.T) {
	t.Parallel()

	cases := map[string][]domain.AudioChunk{
		"missing":      {{Index: 0, Data: []byte("A")}},
		"duplicate":    {{Index: 0}, {Index: 0}},
		"out of range": {{Index: 0}, {Index: 2}},
		"negative":     {{Index: -1}, {Index: 0}},
	}
	for name, chunks := range cases {
		if _, err := AssembleEpisode("x.mp3", nil, chunks, 2); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestEpisodeFileName(t *testing.T) {
	t.Parallel()

	got := EpisodeFileName("circuit-breakers", time.Date(2026, 10, 19, 23, 0, 0, 0, time.UTC))
	if got != "circuit-breakers-2026-10-19.mp3" {
		t.Fatalf("EpisodeFileName = %q", got)
	}
}

func TestSynthesizeLinesBoundsConcurrencyAndKeepsIndices(t *testing.T) {
	t.Parallel()

	lines := SegmentScript(strings.Repeat("HANS: one\nFLINT: two\n", 5), testHosts)
	synth := &fakeSynth{delay: 5 * time.Millisecond}

	chunks, err := SynthesizeLines(context.Background(), synth, lines, 3)
	if err != nil {
		t.Fatalf("SynthesizeLines returned error: %v", err)
	}
	if synth.peak > 3 {
		t.Fatalf("peak concurrency %d exceeds limit 3", synth.peak)
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("chunk %d carries index %d", i, chunk.Index)
		}
	}

	audio, err := AssembleEpisode("x.mp3", nil, chunks, len(lines))
	if err != nil {
		t.Fatalf("AssembleEpisode returned error: %v", err)
	}
	if !strings.HasPrefix(string(audio.Data), "[HANS:one][FLINT:two][HANS:one]") {
		t.Fatalf("unexpected audio order %q", audio.Data)
	}
}

func TestSynthesizeLinesFailsOnAnyLine(t *testing.T) {
	t.Parallel()

	lines := SegmentScript("HANS: a\nFLINT: b\nHANS: c\n", testHosts)
	synth := &fakeSynth{fail: map[int]bool{1: true}}

	chunks, err := SynthesizeLines(context.Background(), synth, lines, 2)
	if err == nil || !strings.Contains(err.Error(), "line 1 (FLINT)") {
		t.Fatalf("expected line 1 failure, got %v", err)
	}
	if chunks != nil {
		t.Fatalf("expected no chunks on failure, got %d", len(chunks))
	}
}
