package interfaces

import (
	"context"

	"github.com/ternarybob/narro/internal/models"
)

// FetchService retrieves a source document from a remote URL. Implementations
// dispatch on the URL host: YouTube URLs resolve to video metadata plus the
// caption track, everything else is treated as a web article.
type FetchService interface {
	// Fetch downloads and extracts the document at the given URL.
	//
	// Returns:
	//   - *models.SourceDocument: extracted title, body text, and metadata
	//   - error: non-nil when the source cannot be retrieved after retries
	Fetch(ctx context.Context, url string) (*models.SourceDocument, error)
}
