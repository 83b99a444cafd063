package domain

import "encoding/json"

// CurationBrief is the curator's selection, passed through to the writer untouched.
type CurationBrief json.RawMessage

// DeepDive is a teaser/link pair listed in the episode digest.
type DeepDive struct {
	Tease string `json:"tease"`
	URL   string `json:"url"`
}

// EpisodeScript holds the dialogue text and the metadata the writer attached to it.
type EpisodeScript struct {
	Script      string
	Metadata    json.RawMessage
	Title       string
	Description string
	DeepDives   []DeepDive
	StoryCount  int
}

// SpeakerLine is one attributed utterance of a script.
type SpeakerLine struct {
	Index   int
	Total   int
	Speaker string
	Text    string
	VoiceID string
}

// AudioChunk is the synthesized audio for the line with the same index.
type AudioChunk struct {
	Index int
	Data  []byte
}

// EpisodeAudio is the final concatenated artifact.
type EpisodeAudio struct {
	FileName  string
	Data      []byte
	Size      int
	LineCount int
	HasIntro  bool
}

// PublishedEpisode is what the hosting service reports back after upload.
type PublishedEpisode struct {
	ID       string
	AudioURL string
}
