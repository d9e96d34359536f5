package illustration

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/httpclient"
)

const (
	unsplashSearchEndpoint = "https://api.unsplash.com/search/photos"
	searchPageSize         = 20
)

// fallbackImageURLs is the fixed pool used when search is unavailable.
// Selection hashes the title and keywords so the same content always maps
// to the same image.
var fallbackImageURLs = []string{
	"https://images.unsplash.com/photo-1516321318423-f06f85e504b3?w=800&h=450&fit=crop",
	"https://images.unsplash.com/photo-1555949963-aa79dcee981c?w=800&h=450&fit=crop",
	"https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=800&h=450&fit=crop",
	"https://images.unsplash.com/photo-1551288049-bebda4e38f71?w=800&h=450&fit=crop",
	"https://images.unsplash.com/photo-1451187580459-43490279c0fa?w=800&h=450&fit=crop",
	"https://images.unsplash.com/photo-1518709268805-4e9042af2176?w=800&h=450&fit=crop",
	"https://images.unsplash.com/photo-1558494949-ef010cbdcc31?w=800&h=450&fit=crop",
	"https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=800&h=450&fit=crop",
}

// unsplashSearchResponse is the subset of the search payload we use
type unsplashSearchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Service selects and downloads cover images
type Service struct {
	config *common.IllustrationConfig
	client *http.Client
	logger arbor.ILogger
}

// NewService creates the illustration service
func NewService(config *common.IllustrationConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		client: httpclient.NewDefaultHTTPClient(15 * time.Second),
		logger: logger,
	}
}

// Illustrate writes a cropped cover image to outputPath. Search results
// are preferred; the fixed fallback pool covers missing credentials,
// search failures, and empty result sets. Selection is deterministic for
// a given title and keyword set in both paths.
func (s *Service) Illustrate(ctx context.Context, title string, keywords []string, outputPath string) (bool, error) {
	seed := contentHash(title, keywords)

	if s.config.UnsplashAccessKey != "" {
		imageURL, err := s.searchImage(ctx, keywords, seed)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Unsplash search failed, using fallback image pool")
		} else if imageURL != "" {
			if err := s.download(ctx, imageURL, outputPath); err == nil {
				s.logger.Info().Str("url", imageURL).Str("output", outputPath).Msg("Cover image selected from search")
				return true, nil
			} else {
				s.logger.Warn().Err(err).Str("url", imageURL).Msg("Failed to download searched image, using fallback image pool")
			}
		}
	} else {
		s.logger.Debug().Msg("No Unsplash access key configured, using fallback image pool")
	}

	fallbackURL := fallbackImageURLs[seed%uint64(len(fallbackImageURLs))]
	if err := s.download(ctx, fallbackURL, outputPath); err != nil {
		return false, fmt.Errorf("failed to download fallback image: %w", err)
	}

	s.logger.Info().Str("url", fallbackURL).Str("output", outputPath).Msg("Cover image selected from fallback pool")
	return false, nil
}

// searchImage queries Unsplash and picks one result by the content seed
func (s *Service) searchImage(ctx context.Context, keywords []string, seed uint64) (string, error) {
	if len(keywords) == 0 {
		return "", nil
	}

	query := strings.Join(keywords, " ")
	endpoint := fmt.Sprintf("%s?query=%s&per_page=%d&orientation=landscape",
		unsplashSearchEndpoint, url.QueryEscape(query), searchPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept-Version", "v1")
	req.Header.Set("Authorization", "Client-ID "+s.config.UnsplashAccessKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search returned status %s", resp.Status)
	}

	var payload unsplashSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode search response: %w", err)
	}
	if len(payload.Results) == 0 {
		s.logger.Debug().Str("query", query).Msg("Unsplash search returned no results")
		return "", nil
	}

	pick := payload.Results[seed%uint64(len(payload.Results))]
	return pick.URLs.Regular, nil
}

// download retrieves an image and writes the cropped JPEG
func (s *Service) download(ctx context.Context, imageURL, outputPath string) error {
	data, err := httpclient.Get(ctx, s.client, imageURL, "")
	if err != nil {
		return err
	}
	return CropToAspect(data, s.config.Width, s.config.Height, s.config.JPEGQuality, outputPath)
}

// contentHash produces the deterministic selection seed from title and
// keywords. FNV keeps the mapping stable across runs and platforms.
func contentHash(title string, keywords []string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.Join(keywords, ",")))
	h.Write([]byte(title))
	return h.Sum64()
}
