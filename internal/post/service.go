package post

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/models"
)

// frontMatter is the Zola-style TOML front matter block
type frontMatter struct {
	Title string           `toml:"title"`
	Date  string           `toml:"date,omitempty"`
	Extra frontMatterExtra `toml:"extra"`
}

type frontMatterExtra struct {
	Audio  string `toml:"audio,omitempty"`
	Image  string `toml:"image,omitempty"`
	Author string `toml:"author,omitempty"`
	Source string `toml:"source,omitempty"`
}

// Service lays out the final post directory
type Service struct {
	outputDir string
	config    *common.PostConfig
	logger    arbor.ILogger
}

// NewService creates the post assembly service rooted at outputDir
func NewService(outputDir string, config *common.PostConfig, logger arbor.ILogger) *Service {
	return &Service{
		outputDir: outputDir,
		config:    config,
		logger:    logger,
	}
}

// Prepare resolves artifact paths for a slug and creates the post
// directory. An existing index.md with overwrite disabled reports
// skip=true so the caller leaves the post untouched.
func (s *Service) Prepare(slug string, overwrite bool) (*models.ArtifactPaths, bool, error) {
	dir := filepath.Join(s.outputDir, slug)
	paths := &models.ArtifactPaths{
		Dir:      dir,
		Markdown: filepath.Join(dir, models.PostFileMarkdown),
		Audio:    filepath.Join(dir, models.PostFileAudio),
		Image:    filepath.Join(dir, models.PostFileImage),
		Text:     filepath.Join(dir, models.PostFileText),
		Metadata: filepath.Join(dir, models.PostFileJSON),
	}

	if !overwrite {
		if _, err := os.Stat(paths.Markdown); err == nil {
			s.logger.Info().Str("slug", slug).Str("dir", dir).Msg("Post already exists, skipping")
			return paths, true, nil
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, false, fmt.Errorf("failed to create post directory %s: %w", dir, err)
	}
	return paths, false, nil
}

// Write renders index.md, asset.txt, and asset.json. Each file failure is
// recorded on the returned record and logged; files already written stay
// in place. The returned error is the first failure, if any.
func (s *Service) Write(doc *models.SourceDocument, paths *models.ArtifactPaths, meta *models.PostMetadata) (*models.PostRecord, error) {
	record := &models.PostRecord{
		Slug:     meta.Slug,
		Paths:    *paths,
		Metadata: *meta,
	}
	var firstErr error

	markdown, err := s.renderMarkdown(doc, meta)
	if err == nil {
		err = os.WriteFile(paths.Markdown, []byte(markdown), 0644)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("path", paths.Markdown).Msg("Failed to write post markdown")
		firstErr = err
	} else {
		record.WroteMarkdown = true
	}

	if err := os.WriteFile(paths.Text, []byte(doc.Text), 0644); err != nil {
		s.logger.Error().Err(err).Str("path", paths.Text).Msg("Failed to write narration text")
		if firstErr == nil {
			firstErr = err
		}
	} else {
		record.WroteText = true
	}

	sidecar, err := json.MarshalIndent(meta, "", "  ")
	if err == nil {
		err = os.WriteFile(paths.Metadata, sidecar, 0644)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("path", paths.Metadata).Msg("Failed to write metadata sidecar")
		if firstErr == nil {
			firstErr = err
		}
	} else {
		record.WroteMetadata = true
	}

	if _, err := os.Stat(paths.Audio); err == nil {
		record.HasAudio = true
	}
	if _, err := os.Stat(paths.Image); err == nil {
		record.HasImage = true
	}

	if record.WroteMarkdown {
		s.logger.Info().
			Str("slug", meta.Slug).
			Str("path", paths.Markdown).
			Bool("audio", record.HasAudio).
			Bool("image", record.HasImage).
			Msg("Post written")
	}
	return record, firstErr
}

// renderMarkdown builds the front matter and body for index.md
func (s *Service) renderMarkdown(doc *models.SourceDocument, meta *models.PostMetadata) (string, error) {
	fm := frontMatter{
		Title: doc.Title,
		Date:  meta.PubDate,
		Extra: frontMatterExtra{
			Author: s.config.Author,
			Source: doc.URL,
		},
	}
	if meta.AudioFile != "" {
		fm.Extra.Audio = models.PostFileAudio
	}
	if meta.ImageFile != "" {
		fm.Extra.Image = models.PostFileImage
	}

	fmBytes, err := toml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("failed to marshal front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("+++\n")
	b.Write(fmBytes)
	b.WriteString("+++\n\n")
	b.WriteString(s.renderBody(doc))
	b.WriteString("\n")
	return b.String(), nil
}

// renderBody prefers the extracted markdown; sources without markdown get
// their heading outline followed by the plain text.
func (s *Service) renderBody(doc *models.SourceDocument) string {
	if body := strings.TrimSpace(doc.BodyMarkdown); body != "" {
		return body
	}

	var b strings.Builder
	for _, h := range doc.Headings {
		level := h.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		b.WriteString(strings.Repeat("#", level))
		b.WriteString(" ")
		b.WriteString(h.Text)
		b.WriteString("\n\n")
	}
	b.WriteString(doc.Text)
	return b.String()
}
