package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
)

// minSegmentBytes is the smallest plausible segment: a WAV header alone is
// 44 bytes, anything at or below that carries no audio.
const minSegmentBytes = 44

// Assembler joins ordered audio segments into one file with ffmpeg's
// stream-copy concat demuxer.
type Assembler struct {
	config *common.AudioConfig
	logger arbor.ILogger
}

// NewAssembler creates the audio assembly service
func NewAssembler(config *common.AudioConfig, logger arbor.ILogger) *Assembler {
	return &Assembler{
		config: config,
		logger: logger,
	}
}

// CheckFFmpeg verifies the configured ffmpeg binary is available
func (a *Assembler) CheckFFmpeg() error {
	if _, err := exec.LookPath(a.config.FFmpegPath); err != nil {
		return fmt.Errorf("ffmpeg not found at %q: %w", a.config.FFmpegPath, err)
	}
	return nil
}

// Assemble concatenates the segment files into outputPath. Segments and
// the concat manifest are deleted only after ffmpeg succeeds; on failure
// everything stays on disk so the run can resume.
func (a *Assembler) Assemble(ctx context.Context, segments []string, outputPath string) error {
	if len(segments) == 0 {
		return fmt.Errorf("no segments to assemble")
	}
	if err := a.CheckFFmpeg(); err != nil {
		return err
	}
	if err := a.validateSegments(segments); err != nil {
		return err
	}

	manifest := filepath.Join(filepath.Dir(segments[0]), "concat_list.txt")
	if err := writeConcatManifest(manifest, segments); err != nil {
		return err
	}

	encode := isWAVFile(segments[0])
	cmd := exec.CommandContext(ctx, a.config.FFmpegPath, ffmpegArgs(manifest, outputPath, encode)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	a.logger.Info().
		Int("segments", len(segments)).
		Str("output", outputPath).
		Bool("encode", encode).
		Msg("Assembling audio with ffmpeg")

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg concat failed: %w: %s", err, truncate(stderr.String(), 500))
	}

	if info, err := os.Stat(outputPath); err != nil || info.Size() == 0 {
		return fmt.Errorf("ffmpeg produced no output at %s", outputPath)
	}

	a.cleanup(append(segments, manifest))

	a.logger.Info().Str("output", outputPath).Msg("Audio assembly complete")
	return nil
}

// validateSegments rejects missing or truncated segment files before
// handing them to ffmpeg
func (a *Assembler) validateSegments(segments []string) error {
	for i, segment := range segments {
		info, err := os.Stat(segment)
		if err != nil {
			return fmt.Errorf("segment %d is missing: %w", i, err)
		}
		if info.Size() <= minSegmentBytes {
			return fmt.Errorf("segment %d (%s) is truncated: %d bytes", i, segment, info.Size())
		}
	}
	return nil
}

// cleanup removes intermediate files, logging rather than failing on error
func (a *Assembler) cleanup(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			a.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove intermediate file")
		}
	}
}

// ffmpegArgs builds the concat invocation. The mp3 muxer rejects a
// stream-copied PCM stream, so WAV segments must be encoded with
// libmp3lame; already-compressed segments keep the lossless copy path.
func ffmpegArgs(manifest, outputPath string, encode bool) []string {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
	}
	if encode {
		args = append(args, "-c:a", "libmp3lame", "-q:a", "2")
	} else {
		args = append(args, "-c", "copy")
	}
	return append(args, "-y", outputPath)
}

// isWAVFile reports whether the file starts with a RIFF/WAVE header
func isWAVFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.HasPrefix(header, []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE"))
}

// writeConcatManifest writes the ffmpeg concat demuxer input list.
// Single quotes in paths are escaped per the demuxer's quoting rules.
func writeConcatManifest(path string, segments []string) error {
	var b strings.Builder
	for _, segment := range segments {
		abs, err := filepath.Abs(segment)
		if err != nil {
			return fmt.Errorf("failed to resolve segment path %s: %w", segment, err)
		}
		escaped := strings.ReplaceAll(abs, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat manifest: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
