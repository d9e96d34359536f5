package interfaces

import "context"

// AudioService joins ordered audio segments into a single output file.
type AudioService interface {
	// Assemble concatenates the segment files into outputPath. Segments
	// and any intermediate files are removed only after the output has
	// been written successfully.
	Assemble(ctx context.Context, segments []string, outputPath string) error
}
