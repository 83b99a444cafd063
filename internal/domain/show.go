package domain

// Host binds a script speaker tag to a synthesis voice.
type Host struct {
	Tag     string `yaml:"tag" json:"tag"`
	Name    string `yaml:"name" json:"name"`
	VoiceID string `yaml:"voiceId" json:"voice_id"`
	Persona string `yaml:"persona,omitempty" json:"persona,omitempty"`
}

// ShowSegment is one block of the running order.
type ShowSegment struct {
	Name    string `yaml:"name" json:"name"`
	Minutes int    `yaml:"minutes" json:"minutes"`
	Notes   string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// ShowFormat is the static description of the show handed to the agents.
type ShowFormat struct {
	Title                string
	Slug                 string
	EpisodeLengthMinutes int
	TargetWordCount      int
	WordsPerMinute       int
	Segments             []ShowSegment
	Hosts                []Host
	DefaultTitle         string
}
