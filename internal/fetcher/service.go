package fetcher

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/interfaces"
	"github.com/ternarybob/narro/internal/models"
)

// Service dispatches fetch requests by source type
type Service struct {
	web     *WebFetcher
	youtube *YouTubeFetcher
	logger  arbor.ILogger
}

// NewService creates a fetch service covering web articles and YouTube videos
func NewService(config *common.FetchConfig, logger arbor.ILogger) interfaces.FetchService {
	return &Service{
		web:     NewWebFetcher(config, logger),
		youtube: NewYouTubeFetcher(config, logger),
		logger:  logger,
	}
}

// Fetch retrieves the document at url, dispatching on the URL host
func (s *Service) Fetch(ctx context.Context, url string) (*models.SourceDocument, error) {
	if common.IsYouTubeURL(url) {
		s.logger.Debug().Str("url", url).Msg("Dispatching to YouTube fetcher")
		return s.youtube.Fetch(ctx, url)
	}
	s.logger.Debug().Str("url", url).Msg("Dispatching to web fetcher")
	return s.web.Fetch(ctx, url)
}
