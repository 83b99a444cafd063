package usecase

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"DailyCast/internal/domain"
)

func TestSegmentScriptKeepsTaggedLinesInOrder(t *testing.T) {
	t.Parallel()

	script := "# Cold open\n" +
		"HANS: Good morning, this is Circuit Breakers.\n" +
		"\n" +
		"   FLINT:   And I'm Flint.  \n" +
		"[music sting]\n" +
		"Narrator: not a host\n" +
		"HANS:\n" +
		"hans: lowercase tag is not a speaker\n" +
		"FLINT: Let's get into it: three stories today.\n"

	got := SegmentScript(script, testHosts)
	want := []domain.SpeakerLine{
		{Index: 0, Total: 3, Speaker: "HANS", Text: "Good morning, this is Circuit Breakers.", VoiceID: "voice-hans"},
		{Index: 1, Total: 3, Speaker: "FLINT", Text: "And I'm Flint.", VoiceID: "voice-flint"},
		{Index: 2, Total: 3, Speaker: "FLINT", Text: "Let's get into it: three stories today.", VoiceID: "voice-flint"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentScriptWithoutSpeakers(t *testing.T) {
	t.Parallel()

	if got := SegmentScript("just prose\nno tags here", testHosts); len(got) != 0 {
		t.Fatalf("expected no lines, got %+v", got)
	}
	if got := SegmentScript("HANS: hi", nil); len(got) != 0 {
		t.Fatalf("expected no lines without hosts, got %+v", got)
	}
}
