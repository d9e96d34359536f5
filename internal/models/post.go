package models

import "time"

// Standard artifact file names within a post directory.
// The downstream static-site renderer keys on these names.
const (
	PostFileMarkdown = "index.md"
	PostFileAudio    = "asset.mp3"
	PostFileImage    = "asset.jpg"
	PostFileText     = "asset.txt"
	PostFileJSON     = "asset.json"
)

// ArtifactPaths holds the absolute paths of all files in one post directory
type ArtifactPaths struct {
	Dir      string `json:"dir"`
	Markdown string `json:"markdown"`
	Audio    string `json:"audio"`
	Image    string `json:"image"`
	Text     string `json:"text"`
	Metadata string `json:"metadata"`
}

// PostMetadata is the sidecar record written next to the generated post
type PostMetadata struct {
	URL           string    `json:"url"`
	Slug          string    `json:"slug"`
	Title         string    `json:"title"`
	PubDate       string    `json:"pub_date"`
	Chunks        int       `json:"chunks"`
	ContentLength int       `json:"content_length"`
	HeadingsCount int       `json:"headings_count"`
	AudioFile     string    `json:"audio_file,omitempty"`
	ImageFile     string    `json:"image_file,omitempty"`
	TextFile      string    `json:"text_file"`
	MarkdownFile  string    `json:"markdown_file"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// PostRecord is the final artifact set for one unit of work
type PostRecord struct {
	Slug     string
	Paths    ArtifactPaths
	Metadata PostMetadata

	// Per-file write outcomes; a missing optional artifact is logged by the
	// assembler, never rolled back.
	WroteMarkdown bool
	WroteText     bool
	WroteMetadata bool
	HasAudio      bool
	HasImage      bool
}
