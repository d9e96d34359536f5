package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/audio"
	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/fetcher"
	"github.com/ternarybob/narro/internal/illustration"
	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/llm"
	"github.com/ternarybob/narro/internal/models"
	"github.com/ternarybob/narro/internal/post"
	"github.com/ternarybob/narro/internal/transform"
	"github.com/ternarybob/narro/internal/tts"
)

// ProgressResetter is implemented by speech services that keep a resume
// marker between runs.
type ProgressResetter interface {
	ResetProgress(slug string) error
}

// Services groups the stage implementations the pipeline runs. Tests
// substitute fakes per stage.
type Services struct {
	Fetcher      interfaces.FetchService
	Summary      interfaces.SummaryService
	Speech       interfaces.SpeechService
	Audio        interfaces.AudioService
	Illustration interfaces.IllustrationService
	Post         interfaces.PostService
}

// Result reports the outcome of one conversion run
type Result struct {
	RunID   string
	Slug    string
	Skipped bool

	// Degradations lists the best-effort stages that fell back; the run
	// still succeeded
	Degradations []string

	Record *models.PostRecord
}

// Pipeline converts one source URL into a complete post directory
type Pipeline struct {
	config   *common.Config
	services Services
	logger   arbor.ILogger
}

// New creates a pipeline from explicit stage implementations
func New(config *common.Config, services Services, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		config:   config,
		services: services,
		logger:   logger,
	}
}

// NewDefault wires the production stage implementations from config.
// Returns an error when synthesis credentials are missing, since audio is
// the core artifact.
func NewDefault(config *common.Config, logger arbor.ILogger) (*Pipeline, error) {
	speech, err := tts.NewService(&config.Speech, &config.Gemini, logger)
	if err != nil {
		return nil, err
	}

	var factory *llm.ProviderFactory
	if config.Summary.Provider != "none" {
		factory = llm.NewProviderFactory(&config.Summary, &config.Gemini, &config.Claude, logger)
	}

	services := Services{
		Fetcher:      fetcher.NewService(&config.Fetch, logger),
		Summary:      llm.NewSummarizer(&config.Summary, factory, logger),
		Speech:       speech,
		Audio:        audio.NewAssembler(&config.Audio, logger),
		Illustration: illustration.NewService(&config.Illustration, logger),
		Post:         post.NewService(config.OutputDir, &config.Post, logger),
	}
	return New(config, services, logger), nil
}

// Run executes the full conversion for one URL. Fetch, synthesis, and
// audio assembly failures abort the run; summarization and illustration
// degrade and are reported on the result.
func (p *Pipeline) Run(ctx context.Context, url string, resetProgress bool) (*Result, error) {
	started := time.Now()
	runID := common.NewRunID()

	// 1. Fetch. Nothing is written to disk until the source is retrieved.
	doc, err := p.services.Fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	slug := common.SlugFromURL(doc.URL, doc.Title)
	result := &Result{RunID: runID, Slug: slug}

	logger := p.logger
	logger.Info().
		Str("run_id", runID).
		Str("slug", slug).
		Str("source_type", doc.SourceType).
		Str("title", doc.Title).
		Msg("Starting conversion")

	// Sources without DOM headings may still carry them in markdown
	if len(doc.Headings) == 0 && doc.BodyMarkdown != "" {
		doc.Headings = transform.ExtractMarkdownHeadings(doc.BodyMarkdown)
	}

	// 2. Post directory. Existing posts are left untouched unless
	// overwrite is enabled.
	paths, skip, err := p.services.Post.Prepare(slug, p.config.Post.Overwrite)
	if err != nil {
		return nil, err
	}
	if skip {
		result.Skipped = true
		return result, nil
	}

	if resetProgress {
		if resetter, ok := p.services.Speech.(ProgressResetter); ok {
			if err := resetter.ResetProgress(slug); err != nil {
				return nil, err
			}
			logger.Info().Str("slug", slug).Msg("Synthesis progress reset")
		}
	}

	// 3. Narration text. Best effort: failures fall back to source text
	// inside the summarizer.
	narration, err := p.services.Summary.Summarize(ctx, doc.Title, doc.Text)
	if err != nil {
		// Summarize contracts to degrade internally; a returned error
		// means even passthrough was impossible
		return nil, fmt.Errorf("summarization failed: %w", err)
	}
	if narration != doc.Text {
		logger.Debug().Int("narration_length", len(narration)).Msg("Using summarized narration")
	} else {
		result.Degradations = append(result.Degradations, "narration uses original text")
	}

	// 4. Chunk for synthesis
	chunks := transform.ChunkWords(narration, p.config.Speech.ChunkWords)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no narratable text after normalization")
	}
	logger.Info().Int("chunks", len(chunks)).Int("chunk_words", p.config.Speech.ChunkWords).Msg("Chunked narration")

	// 5. Synthesize per-chunk audio
	workDir := filepath.Join(p.config.Speech.WorkDir, slug)
	segments, err := p.services.Speech.Synthesize(ctx, slug, chunks, workDir)
	if err != nil {
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	// 6. Assemble the final audio file
	if err := p.services.Audio.Assemble(ctx, segments, paths.Audio); err != nil {
		return nil, fmt.Errorf("audio assembly failed: %w", err)
	}
	if resetter, ok := p.services.Speech.(ProgressResetter); ok {
		if err := resetter.ResetProgress(slug); err != nil {
			logger.Warn().Err(err).Str("slug", slug).Msg("Failed to clear synthesis progress marker")
		}
	}
	p.removeWorkDir(workDir)

	// 7. Cover image. Never fatal: a post without an image is still a post.
	keywords, err := p.services.Summary.Keywords(ctx, doc.Title, doc.Text)
	if err != nil || len(keywords) == 0 {
		keywords = llm.FallbackKeywords
	}
	imageWritten := true
	fromSearch, err := p.services.Illustration.Illustrate(ctx, doc.Title, keywords, paths.Image)
	if err != nil {
		logger.Warn().Err(err).Msg("Illustration failed, post will have no cover image")
		result.Degradations = append(result.Degradations, "no cover image")
		imageWritten = false
	} else if !fromSearch {
		result.Degradations = append(result.Degradations, "cover image from fallback pool")
	}

	// 8. Write the post files
	meta := &models.PostMetadata{
		URL:           doc.URL,
		Slug:          slug,
		Title:         doc.Title,
		PubDate:       pubDate(doc),
		Chunks:        len(chunks),
		ContentLength: len(doc.Text),
		HeadingsCount: len(doc.Headings),
		AudioFile:     models.PostFileAudio,
		TextFile:      models.PostFileText,
		MarkdownFile:  models.PostFileMarkdown,
		GeneratedAt:   time.Now().UTC(),
	}
	if imageWritten {
		meta.ImageFile = models.PostFileImage
	}

	record, err := p.services.Post.Write(doc, paths, meta)
	if err != nil {
		return nil, fmt.Errorf("post assembly failed: %w", err)
	}
	result.Record = record

	logger.Info().
		Str("run_id", runID).
		Str("slug", slug).
		Dur("elapsed", time.Since(started)).
		Int("degradations", len(result.Degradations)).
		Msg("Conversion complete")
	return result, nil
}

// pubDate falls back to the fetch date when the source has no
// publication date
func pubDate(doc *models.SourceDocument) string {
	if doc.Published != "" {
		return doc.Published
	}
	return doc.FetchedAt.Format("2006-01-02")
}

// removeWorkDir clears the per-slug synthesis directory once its contents
// are consumed
func (p *Pipeline) removeWorkDir(workDir string) {
	entries, err := os.ReadDir(workDir)
	if err != nil {
		return
	}
	if len(entries) == 0 {
		if err := os.Remove(workDir); err != nil {
			p.logger.Debug().Err(err).Str("dir", workDir).Msg("Could not remove work directory")
		}
	}
}
