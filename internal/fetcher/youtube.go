package fetcher

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/httpclient"
	"github.com/ternarybob/narro/internal/models"
	"github.com/ternarybob/narro/internal/transform"
)

const (
	oembedEndpoint    = "https://www.youtube.com/oembed"
	timedTextEndpoint = "https://video.google.com/timedtext"
)

// oembedResponse is the subset of the YouTube oEmbed payload we use
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// captionTrack models the timedtext XML caption document
type captionTrack struct {
	XMLName xml.Name      `xml:"transcript"`
	Lines   []captionLine `xml:"text"`
}

type captionLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Text  string `xml:",chardata"`
}

// YouTubeFetcher retrieves video metadata via oEmbed and the caption track
// via the public timedtext endpoint.
type YouTubeFetcher struct {
	client *http.Client
	config *common.FetchConfig
	retry  *RetryPolicy
	logger arbor.ILogger
}

// NewYouTubeFetcher creates a YouTube transcript fetcher
func NewYouTubeFetcher(config *common.FetchConfig, logger arbor.ILogger) *YouTubeFetcher {
	retry := NewRetryPolicy()
	if config.MaxRetries > 0 {
		retry.MaxAttempts = config.MaxRetries
	}
	if config.RetryBackoff > 0 {
		retry.InitialBackoff = config.RetryBackoff
	}

	return &YouTubeFetcher{
		client: httpclient.NewDefaultHTTPClient(config.Timeout),
		config: config,
		retry:  retry,
		logger: logger,
	}
}

// Fetch resolves a YouTube URL to its title and caption transcript
func (f *YouTubeFetcher) Fetch(ctx context.Context, videoURL string) (*models.SourceDocument, error) {
	videoID := common.YouTubeVideoID(videoURL)
	if videoID == "" {
		return nil, &FetchError{URL: videoURL, Kind: ErrKindUnsupported, Err: fmt.Errorf("could not extract video ID")}
	}

	title, author, err := f.fetchMetadata(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	transcript, err := f.fetchTranscript(ctx, videoURL, videoID)
	if err != nil {
		return nil, err
	}

	f.logger.Info().
		Str("url", videoURL).
		Str("video_id", videoID).
		Str("title", title).
		Int("content_length", len(transcript)).
		Msg("Fetched YouTube transcript")

	doc := &models.SourceDocument{
		URL:        videoURL,
		SourceType: models.SourceTypeYouTube,
		Title:      title,
		Text:       transcript,
		FetchedAt:  time.Now().UTC(),
	}
	if author != "" {
		doc.Headings = []models.Heading{{Level: 2, Text: author}}
	}
	return doc, nil
}

// fetchMetadata resolves title and channel name via the oEmbed endpoint
func (f *YouTubeFetcher) fetchMetadata(ctx context.Context, videoURL string) (title, author string, err error) {
	endpoint := fmt.Sprintf("%s?url=%s&format=json", oembedEndpoint, url.QueryEscape(videoURL))

	body, err := f.retry.ExecuteWithRetry(ctx, f.logger, func() ([]byte, error) {
		return httpclient.Get(ctx, f.client, endpoint, f.config.UserAgent)
	})
	if err != nil {
		return "", "", &FetchError{URL: videoURL, Kind: ErrKindRequest, Err: fmt.Errorf("oembed lookup failed: %w", err)}
	}

	var meta oembedResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		return "", "", &FetchError{URL: videoURL, Kind: ErrKindExtract, Err: fmt.Errorf("failed to parse oembed response: %w", err)}
	}
	return strings.TrimSpace(meta.Title), strings.TrimSpace(meta.AuthorName), nil
}

// fetchTranscript downloads the caption track, preferring the configured
// language and falling back to English.
func (f *YouTubeFetcher) fetchTranscript(ctx context.Context, videoURL, videoID string) (string, error) {
	langs := []string{f.config.CaptionLang}
	if f.config.CaptionLang != "en" {
		langs = append(langs, "en")
	}

	var lastErr error
	for _, lang := range langs {
		endpoint := fmt.Sprintf("%s?lang=%s&v=%s", timedTextEndpoint, url.QueryEscape(lang), url.QueryEscape(videoID))

		body, err := f.retry.ExecuteWithRetry(ctx, f.logger, func() ([]byte, error) {
			return httpclient.Get(ctx, f.client, endpoint, f.config.UserAgent)
		})
		if err != nil {
			lastErr = err
			continue
		}

		transcript, err := parseCaptionXML(body)
		if err != nil {
			lastErr = err
			continue
		}
		if transcript != "" {
			return transcript, nil
		}
		lastErr = fmt.Errorf("caption track for language %q is empty", lang)
	}

	return "", &FetchError{URL: videoURL, Kind: ErrKindExtract, Err: fmt.Errorf("no captions available: %w", lastErr)}
}

// parseCaptionXML flattens a timedtext document into plain prose
func parseCaptionXML(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	var track captionTrack
	if err := xml.Unmarshal(data, &track); err != nil {
		return "", fmt.Errorf("failed to parse caption XML: %w", err)
	}

	var parts []string
	for _, line := range track.Lines {
		// Caption text arrives HTML-escaped, sometimes twice
		text := html.UnescapeString(html.UnescapeString(line.Text))
		text = strings.ReplaceAll(text, "\n", " ")
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}

	return transform.NormalizeWhitespace(strings.Join(parts, " ")), nil
}
