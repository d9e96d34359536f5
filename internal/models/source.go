package models

import "time"

const (
	// SourceTypeWeb indicates content scraped from a web article
	SourceTypeWeb = "web"
	// SourceTypeYouTube indicates content extracted from a YouTube video
	SourceTypeYouTube = "youtube"
)

// Heading is a document heading in source order
type Heading struct {
	Level int    `json:"level"` // 1..6
	Text  string `json:"text"`
}

// SourceDocument represents normalized content fetched from a single source.
// PRIMARY CONTENT FORMAT: Markdown (BodyMarkdown field); Text carries the
// plain narration text used for chunking and synthesis.
// Immutable once created by a fetcher.
type SourceDocument struct {
	URL        string    `json:"url"`
	SourceType string    `json:"source_type"` // "web" or "youtube"
	Title      string    `json:"title"`
	Published  string    `json:"published"` // ISO date (2006-01-02)
	Headings   []Heading `json:"headings"`

	BodyMarkdown string `json:"body_markdown"`
	Text         string `json:"text"`

	FetchedAt time.Time `json:"fetched_at"`
}
