package tts

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/narro/internal/models"
)

func TestProgressStore_RoundTrip(t *testing.T) {
	store := NewProgressStore(t.TempDir())

	require.NoError(t, store.Save(&models.SynthesisProgress{
		Slug:      "my-post",
		NextChunk: 4,
		KeyIndex:  1,
		Chunks:    7,
	}))

	loaded := store.Load("my-post")
	assert.Equal(t, "my-post", loaded.Slug)
	assert.Equal(t, 4, loaded.NextChunk)
	assert.Equal(t, 1, loaded.KeyIndex)
	assert.Equal(t, 7, loaded.Chunks)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestProgressStore_MissingMarkerStartsFresh(t *testing.T) {
	store := NewProgressStore(t.TempDir())

	loaded := store.Load("unknown")
	assert.Equal(t, 0, loaded.NextChunk)
	assert.Equal(t, 0, loaded.KeyIndex)
	assert.Equal(t, 0, loaded.Chunks)
}

func TestProgressStore_CorruptMarkerStartsFresh(t *testing.T) {
	dir := t.TempDir()
	store := NewProgressStore(dir)
	require.NoError(t, os.WriteFile(store.Path("bad"), []byte("{corrupt"), 0644))

	loaded := store.Load("bad")
	assert.Equal(t, 0, loaded.NextChunk)
}

func TestProgressStore_Reset(t *testing.T) {
	store := NewProgressStore(t.TempDir())

	require.NoError(t, store.Save(&models.SynthesisProgress{Slug: "gone", NextChunk: 2, Chunks: 3}))
	require.NoError(t, store.Reset("gone"))
	assert.Equal(t, 0, store.Load("gone").NextChunk)

	// Resetting a missing marker is not an error
	assert.NoError(t, store.Reset("never-existed"))
}
