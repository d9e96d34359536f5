package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
)

const summarizeSystemPrompt = `You rewrite written articles and video transcripts into clear spoken narration.
Keep every fact and the original structure. Remove markup artifacts, URLs,
navigation fragments, and anything that reads badly aloud. Write plain prose
with no markdown formatting. Do not add commentary of your own.`

const keywordsSystemPrompt = `You extract image search keywords from article text.
Respond with 4 to 6 short keywords separated by commas. Use concrete visual
nouns where possible. Respond with the keywords only, nothing else.`

// FallbackKeywords is used when no provider is available or extraction fails
var FallbackKeywords = []string{"technology", "blog", "article"}

// Summarizer implements interfaces.SummaryService on top of the provider
// factory. Every operation is best effort: provider failures degrade to the
// original input rather than failing the run.
type Summarizer struct {
	config  *common.SummaryConfig
	factory *ProviderFactory
	logger  arbor.ILogger
}

// NewSummarizer creates the summary service. A nil factory or provider
// "none" yields a passthrough summarizer.
func NewSummarizer(config *common.SummaryConfig, factory *ProviderFactory, logger arbor.ILogger) interfaces.SummaryService {
	return &Summarizer{
		config:  config,
		factory: factory,
		logger:  logger,
	}
}

// Summarize rewrites text for narration. On any provider failure the
// original text is returned unchanged and the failure is logged.
func (s *Summarizer) Summarize(ctx context.Context, title, text string) (string, error) {
	if s.disabled() {
		s.logger.Debug().Msg("Summarization disabled, passing source text through")
		return text, nil
	}

	prompt := fmt.Sprintf("Title: %s\n\nRewrite the following content for audio narration:\n\n%s", title, text)

	resp, err := s.factory.GenerateContent(ctx, &ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: prompt},
		},
		Model:             s.config.Model,
		MaxTokens:         s.config.MaxTokens,
		Temperature:       float32(s.config.Temperature),
		SystemInstruction: summarizeSystemPrompt,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Summarization failed, using original text")
		return text, nil
	}

	summary := strings.TrimSpace(resp.Text)
	if summary == "" {
		s.logger.Warn().Msg("Summarizer returned empty text, using original text")
		return text, nil
	}

	s.logger.Info().
		Str("provider", string(resp.Provider)).
		Str("model", resp.Model).
		Int("source_length", len(text)).
		Int("summary_length", len(summary)).
		Msg("Summarized content for narration")

	return summary, nil
}

// Keywords extracts 4-6 image search keywords. A fixed generic keyword set
// is returned when extraction is unavailable or fails.
func (s *Summarizer) Keywords(ctx context.Context, title, text string) ([]string, error) {
	if s.disabled() {
		return FallbackKeywords, nil
	}

	// A text prefix is enough signal for keywords and keeps the request small
	excerpt := text
	if len(excerpt) > 2000 {
		excerpt = excerpt[:2000]
	}

	resp, err := s.factory.GenerateContent(ctx, &ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: fmt.Sprintf("Title: %s\n\n%s", title, excerpt)},
		},
		Model:             s.config.Model,
		MaxTokens:         128,
		Temperature:       float32(s.config.Temperature),
		SystemInstruction: keywordsSystemPrompt,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Keyword extraction failed, using fallback keywords")
		return FallbackKeywords, nil
	}

	keywords := parseKeywords(resp.Text)
	if len(keywords) == 0 {
		s.logger.Warn().Str("response", resp.Text).Msg("No usable keywords in response, using fallback keywords")
		return FallbackKeywords, nil
	}

	s.logger.Debug().Strs("keywords", keywords).Msg("Extracted image search keywords")
	return keywords, nil
}

func (s *Summarizer) disabled() bool {
	return s.factory == nil || s.config.Provider == "none"
}

// parseKeywords splits a provider response into clean keywords, capped at 6
func parseKeywords(text string) []string {
	text = strings.ReplaceAll(text, "\n", ",")
	var keywords []string
	for _, part := range strings.Split(text, ",") {
		keyword := strings.Trim(strings.TrimSpace(part), `"'.*-`)
		if keyword == "" {
			continue
		}
		keywords = append(keywords, keyword)
		if len(keywords) == 6 {
			break
		}
	}
	return keywords
}
