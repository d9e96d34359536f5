package interfaces

import "context"

// SpeechService converts ordered text chunks into per-chunk audio segment
// files. Implementations persist a progress marker so an interrupted run
// resumes at the first unfinished chunk instead of starting over.
type SpeechService interface {
	// Synthesize produces one audio file per chunk under workDir and
	// returns the segment paths in chunk order. The slug scopes the
	// progress marker to a single source document.
	Synthesize(ctx context.Context, slug string, chunks []string, workDir string) ([]string, error)
}
