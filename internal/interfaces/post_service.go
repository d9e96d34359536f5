package interfaces

import (
	"github.com/ternarybob/narro/internal/models"
)

// PostService lays out the final post directory: the Markdown page with
// front matter, the narration text, and the JSON metadata sidecar.
type PostService interface {
	// Prepare resolves the output paths for a slug and creates the post
	// directory. When the directory already holds a post and overwrite is
	// disabled, Prepare reports skip=true and callers leave it untouched.
	Prepare(slug string, overwrite bool) (paths *models.ArtifactPaths, skip bool, err error)

	// Write renders index.md, asset.txt, and asset.json for the document.
	// Individual file failures are recorded on the returned record rather
	// than rolling back files already written.
	Write(doc *models.SourceDocument, paths *models.ArtifactPaths, meta *models.PostMetadata) (*models.PostRecord, error)
}
