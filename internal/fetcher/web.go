package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/httpclient"
	"github.com/ternarybob/narro/internal/models"
	"github.com/ternarybob/narro/internal/transform"
)

// boilerplateSelectors lists elements stripped before content extraction
var boilerplateSelectors = []string{
	"script", "style", "noscript", "iframe", "svg",
	"nav", "header", "footer", "aside", "form", "button",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]",
	".advertisement", ".ads", ".cookie-banner", ".newsletter-signup",
	".social-share", ".comments", "#comments", ".sidebar", ".related-posts",
}

// WebFetcher retrieves and extracts web articles
type WebFetcher struct {
	client *http.Client
	config *common.FetchConfig
	retry  *RetryPolicy
	logger arbor.ILogger
}

// NewWebFetcher creates a web article fetcher
func NewWebFetcher(config *common.FetchConfig, logger arbor.ILogger) *WebFetcher {
	retry := NewRetryPolicy()
	if config.MaxRetries > 0 {
		retry.MaxAttempts = config.MaxRetries
	}
	if config.RetryBackoff > 0 {
		retry.InitialBackoff = config.RetryBackoff
	}

	return &WebFetcher{
		client: httpclient.NewDefaultHTTPClient(config.Timeout),
		config: config,
		retry:  retry,
		logger: logger,
	}
}

// Fetch downloads the article at url and extracts title, headings, body
// markdown, and plain text.
func (f *WebFetcher) Fetch(ctx context.Context, url string) (*models.SourceDocument, error) {
	body, err := f.retry.ExecuteWithRetry(ctx, f.logger, func() ([]byte, error) {
		return httpclient.Get(ctx, f.client, url, f.config.UserAgent)
	})
	if err != nil {
		return nil, &FetchError{URL: url, Kind: ErrKindRequest, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{URL: url, Kind: ErrKindExtract, Err: fmt.Errorf("failed to parse HTML: %w", err)}
	}

	title := extractTitle(doc)
	published := ""
	if t := extractPublished(doc); !t.IsZero() {
		published = t.Format("2006-01-02")
	}

	for _, selector := range boilerplateSelectors {
		doc.Find(selector).Remove()
	}

	main := mainContent(doc)

	headings := extractHeadings(main)

	contentHTML, err := goquery.OuterHtml(main)
	if err != nil {
		return nil, &FetchError{URL: url, Kind: ErrKindExtract, Err: fmt.Errorf("failed to serialize content: %w", err)}
	}

	converter := md.NewConverter(url, true, nil)
	markdown, err := converter.ConvertString(contentHTML)
	if err != nil {
		f.logger.Warn().Err(err).Str("url", url).Msg("Failed to convert HTML to markdown, keeping plain text only")
		markdown = ""
	}

	text := transform.NormalizeWhitespace(main.Text())
	if text == "" {
		return nil, &FetchError{URL: url, Kind: ErrKindExtract, Err: fmt.Errorf("no text content found")}
	}

	f.logger.Info().
		Str("url", url).
		Str("title", title).
		Int("content_length", len(text)).
		Int("headings", len(headings)).
		Msg("Fetched web article")

	return &models.SourceDocument{
		URL:          url,
		SourceType:   models.SourceTypeWeb,
		Title:        title,
		Published:    published,
		Headings:     headings,
		BodyMarkdown: markdown,
		Text:         text,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// extractTitle prefers Open Graph metadata over the document title
func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := strings.TrimSpace(og); title != "" {
			return title
		}
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if title := strings.TrimSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	return "Web Audio Content"
}

// extractPublished looks for a publication date in common metadata locations
func extractPublished(doc *goquery.Document) time.Time {
	candidates := []string{}

	if v, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find(`meta[name="date"]`).Attr("content"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find(`meta[itemprop="datePublished"]`).Attr("content"); ok {
		candidates = append(candidates, v)
	}
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, v)
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// mainContent returns the most specific content container available
func mainContent(doc *goquery.Document) *goquery.Selection {
	main := doc.Find("main, article, [role=main]").First()
	if main.Length() > 0 {
		return main
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return doc.Selection
}

// extractHeadings collects h1-h6 in document order
func extractHeadings(sel *goquery.Selection) []models.Heading {
	var headings []models.Heading
	sel.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		text := transform.NormalizeWhitespace(h.Text())
		if text == "" {
			return
		}
		level, err := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(h), "h"))
		if err != nil {
			return
		}
		headings = append(headings, models.Heading{Level: level, Text: text})
	})
	return headings
}
