package domain

import "time"

// RunStatus enumerates run outcomes persisted in the run record.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// RunRecord summarizes one pipeline execution. There is at most one per calendar day.
type RunRecord struct {
	Date            string    `json:"date"`
	RunAt           time.Time `json:"run_at"`
	EpisodeTitle    string    `json:"episode_title"`
	StoryCount      int       `json:"story_count"`
	StoriesIngested int       `json:"stories_ingested"`
	EpisodeID       string    `json:"buzzsprout_episode_id"`
	AudioURL        string    `json:"buzzsprout_audio_url"`
	Status          RunStatus `json:"status"`
}
