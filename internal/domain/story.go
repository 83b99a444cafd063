package domain

import "time"

// Story is a normalized, filtered feed entry. Stories are unique by URL within a run.
type Story struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Published   time.Time `json:"published"`
	Source      string    `json:"source"`
	Tier        int       `json:"source_tier"`
	Score       *int      `json:"hn_score"`
}

// Candidate is a provisional entry produced by a feed normalizer.
type Candidate struct {
	Title       string
	Link        string
	Description string
	Published   time.Time
	Score       int
}

// SourceReport captures diagnostics for one source fetch.
type SourceReport struct {
	Source      string `json:"source"`
	URL         string `json:"url"`
	Status      string `json:"status"`
	HTTPStatus  int    `json:"http_status,omitempty"`
	BodyLength  int    `json:"body_length,omitempty"`
	BodyPreview string `json:"body_preview,omitempty"`
	Before      int    `json:"items_before_filter"`
	After       int    `json:"items_after_filter"`
	Error       string `json:"error,omitempty"`
}

// IngestResult is the ranked output of one ingestion pass.
type IngestResult struct {
	Stories   []Story        `json:"stories"`
	Total     int            `json:"total"`
	FetchedAt time.Time      `json:"fetched_at"`
	Reports   []SourceReport `json:"fetch_log,omitempty"`
}
