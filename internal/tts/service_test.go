package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/models"
)

func newTestService(t *testing.T, keys ...string) *Service {
	t.Helper()
	svc, err := NewService(
		&common.SpeechConfig{
			Model:        "tts-model",
			Voice:        "Kore",
			RequestDelay: time.Millisecond,
			ChunkWords:   250,
			WorkDir:      t.TempDir(),
		},
		&common.GeminiConfig{APIKeys: keys},
		arbor.NewLogger(),
	)
	require.NoError(t, err)
	return svc
}

// fakeSynth records every call and delegates to fn for the result.
type fakeSynth struct {
	mu    sync.Mutex
	calls []string
	keys  []string
	fn    func(apiKey, text string) ([]byte, string, error)
}

func (f *fakeSynth) synthesize(_ context.Context, apiKey, _, _, text string) ([]byte, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.keys = append(f.keys, apiKey)
	f.mu.Unlock()
	return f.fn(apiKey, text)
}

func pcmResult(text string) ([]byte, string, error) {
	return []byte(text), "audio/L16;rate=24000", nil
}

func TestNewServiceRequiresKeys(t *testing.T) {
	_, err := NewService(
		&common.SpeechConfig{RequestDelay: time.Millisecond, WorkDir: t.TempDir()},
		&common.GeminiConfig{},
		arbor.NewLogger(),
	)
	require.Error(t, err)
}

func TestSynthesizeAllChunksInOrder(t *testing.T) {
	svc := newTestService(t, "k1")
	fake := &fakeSynth{fn: func(_, text string) ([]byte, string, error) { return pcmResult(text) }}
	svc.SetSynthesizeFunc(fake.synthesize)

	chunks := []string{"first chunk", "second chunk", "third chunk"}
	workDir := t.TempDir()

	segments, err := svc.Synthesize(context.Background(), "my-post", chunks, workDir)
	require.NoError(t, err)
	require.Len(t, segments, 3)
	assert.Equal(t, chunks, fake.calls)

	for i, path := range segments {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, IsWAV(data), "segment %d should carry a WAV header", i)
	}

	// Full completion leaves the marker at the final chunk
	progress := svc.store.Load("my-post")
	assert.Equal(t, 3, progress.NextChunk)
	assert.Equal(t, 3, progress.Chunks)
}

func TestSynthesizeRotatesKeysAndSticks(t *testing.T) {
	svc := newTestService(t, "k1", "k2", "k3")
	fake := &fakeSynth{fn: func(apiKey, text string) ([]byte, string, error) {
		if apiKey == "k1" {
			return nil, "", errors.New("429 RESOURCE_EXHAUSTED")
		}
		return pcmResult(text)
	}}
	svc.SetSynthesizeFunc(fake.synthesize)

	_, err := svc.Synthesize(context.Background(), "rotating", []string{"a", "b"}, t.TempDir())
	require.NoError(t, err)

	// The first chunk burns k1 and succeeds on k2. The second chunk keeps
	// using k2 without retrying the exhausted key.
	assert.Equal(t, []string{"k1", "k2", "k2"}, fake.keys)

	progress := svc.store.Load("rotating")
	assert.Equal(t, 1, progress.KeyIndex)
}

func TestSynthesizeKeysExhausted(t *testing.T) {
	svc := newTestService(t, "k1", "k2")
	fake := &fakeSynth{fn: func(string, string) ([]byte, string, error) {
		return nil, "", errors.New("quota exceeded")
	}}
	svc.SetSynthesizeFunc(fake.synthesize)

	_, err := svc.Synthesize(context.Background(), "doomed", []string{"only chunk"}, t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeysExhausted)
	assert.Len(t, fake.keys, 2, "every key should be tried once")
}

func TestSynthesizeResumesFromMarker(t *testing.T) {
	svc := newTestService(t, "k1", "k2")
	fake := &fakeSynth{fn: func(_, text string) ([]byte, string, error) { return pcmResult(text) }}
	svc.SetSynthesizeFunc(fake.synthesize)

	chunks := []string{"a", "b", "c", "d"}
	workDir := t.TempDir()

	// Pretend a previous run finished chunks 0 and 1 on the second key
	for i := 0; i < 2; i++ {
		path := fmt.Sprintf("%s/resumed_%03d.wav", workDir, i)
		require.NoError(t, os.WriteFile(path, ConvertToWAV([]byte{0, 0}, ""), 0644))
	}
	require.NoError(t, svc.store.Save(&models.SynthesisProgress{
		Slug:      "resumed",
		NextChunk: 2,
		KeyIndex:  1,
		Chunks:    4,
	}))

	segments, err := svc.Synthesize(context.Background(), "resumed", chunks, workDir)
	require.NoError(t, err)
	require.Len(t, segments, 4)

	assert.Equal(t, []string{"c", "d"}, fake.calls, "completed chunks skipped")
	assert.Equal(t, []string{"k2", "k2"}, fake.keys, "resume restores the active key")
}

func TestSynthesizeRegeneratesMissingCompletedChunk(t *testing.T) {
	svc := newTestService(t, "k1")
	fake := &fakeSynth{fn: func(_, text string) ([]byte, string, error) { return pcmResult(text) }}
	svc.SetSynthesizeFunc(fake.synthesize)

	workDir := t.TempDir()
	require.NoError(t, svc.store.Save(&models.SynthesisProgress{
		Slug:      "gappy",
		NextChunk: 1,
		Chunks:    2,
	}))

	// Marker says chunk 0 is done but its file is gone
	_, err := svc.Synthesize(context.Background(), "gappy", []string{"a", "b"}, workDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, fake.calls)
}

func TestSynthesizeResetsMismatchedMarker(t *testing.T) {
	svc := newTestService(t, "k1")
	fake := &fakeSynth{fn: func(_, text string) ([]byte, string, error) { return pcmResult(text) }}
	svc.SetSynthesizeFunc(fake.synthesize)

	require.NoError(t, svc.store.Save(&models.SynthesisProgress{
		Slug:      "changed",
		NextChunk: 3,
		Chunks:    5,
	}))

	// Content was re-fetched and now chunks differently
	_, err := svc.Synthesize(context.Background(), "changed", []string{"a", "b"}, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, fake.calls, "stale marker discarded")
}

func TestSynthesizeEmptyChunks(t *testing.T) {
	svc := newTestService(t, "k1")
	_, err := svc.Synthesize(context.Background(), "empty", nil, t.TempDir())
	require.Error(t, err)
}

func TestSynthesizeHonorsContextCancel(t *testing.T) {
	svc := newTestService(t, "k1")
	fake := &fakeSynth{fn: func(_, text string) ([]byte, string, error) { return pcmResult(text) }}
	svc.SetSynthesizeFunc(fake.synthesize)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Synthesize(ctx, "cancelled", []string{"a"}, t.TempDir())
	require.Error(t, err)
}
