package interfaces

import "context"

// IllustrationService selects and downloads a cover image for a document.
// Selection is deterministic for a given title and keyword set, and the
// service never fails the run: when search is unavailable it falls back to
// a fixed image pool.
type IllustrationService interface {
	// Illustrate writes a cropped cover image to outputPath and reports
	// whether the image came from search results or the fallback pool.
	Illustrate(ctx context.Context, title string, keywords []string, outputPath string) (fromSearch bool, err error)
}
