package interfaces

import "context"

// SummaryService rewrites source text into narration-friendly prose and
// extracts search keywords. Both operations are best effort: when no
// provider is configured or the provider fails, callers fall back to the
// original text and a static keyword set.
type SummaryService interface {
	// Summarize rewrites the given text for audio narration.
	Summarize(ctx context.Context, title, text string) (string, error)

	// Keywords extracts 4-6 short search keywords describing the content.
	Keywords(ctx context.Context, title, text string) ([]string, error)
}
