package tts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/narro/internal/models"
)

// ProgressStore persists the synthesis resume marker as a small JSON file
// next to the audio segments.
type ProgressStore struct {
	dir string
}

// NewProgressStore creates a store rooted at dir
func NewProgressStore(dir string) *ProgressStore {
	return &ProgressStore{dir: dir}
}

// Path returns the marker file location for a slug
func (s *ProgressStore) Path(slug string) string {
	return filepath.Join(s.dir, slug+".progress.json")
}

// Load reads the marker for a slug. A missing or unreadable marker yields a
// zero-value progress so synthesis starts from the first chunk.
func (s *ProgressStore) Load(slug string) *models.SynthesisProgress {
	progress := &models.SynthesisProgress{Slug: slug}

	data, err := os.ReadFile(s.Path(slug))
	if err != nil {
		return progress
	}
	if err := json.Unmarshal(data, progress); err != nil {
		return &models.SynthesisProgress{Slug: slug}
	}
	if progress.NextChunk < 0 || progress.KeyIndex < 0 {
		return &models.SynthesisProgress{Slug: slug}
	}
	progress.Slug = slug
	return progress
}

// Save writes the marker atomically via a rename
func (s *ProgressStore) Save(progress *models.SynthesisProgress) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create progress directory: %w", err)
	}

	progress.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(progress, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	path := s.Path(progress.Slug)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write progress marker: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace progress marker: %w", err)
	}
	return nil
}

// Reset removes the marker for a slug. Missing markers are not an error.
func (s *ProgressStore) Reset(slug string) error {
	if err := os.Remove(s.Path(slug)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove progress marker: %w", err)
	}
	return nil
}
