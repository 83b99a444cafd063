package domain

// Source is a configured feed. Sources are read-only to the ingestion engine.
type Source struct {
	Name     string   `yaml:"name" json:"name"`
	URL      string   `yaml:"rss" json:"rss"`
	Type     string   `yaml:"type" json:"type"`
	Tier     int      `yaml:"tier" json:"tier"`
	Active   bool     `yaml:"active" json:"active"`
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	MinScore int      `yaml:"minScore,omitempty" json:"min_score,omitempty"`
}

// PipelineEntry names one dependent pipeline the circuit breaker can toggle.
type PipelineEntry struct {
	Name string `yaml:"name" json:"name"`
	ID   string `yaml:"id" json:"id"`
}
