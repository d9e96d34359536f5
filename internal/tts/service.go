package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/models"
	"github.com/ternarybob/narro/internal/transform"
)

// ErrKeysExhausted is returned when every key in the rotation pool has
// failed for a single chunk. The run cannot continue without fresh quota.
var ErrKeysExhausted = errors.New("all API keys exhausted")

// SynthesizeFunc produces raw audio plus its MIME type for one text chunk.
// The default implementation calls Gemini TTS; tests swap in fakes.
type SynthesizeFunc func(ctx context.Context, apiKey, model, voice, text string) ([]byte, string, error)

// Service converts text chunks to WAV segment files with key rotation,
// a fixed inter-request delay, and a resumable progress marker.
type Service struct {
	config  *common.SpeechConfig
	ring    *KeyRing
	store   *ProgressStore
	limiter *rate.Limiter
	synth   SynthesizeFunc
	logger  arbor.ILogger
	clients map[string]*genai.Client
}

// NewService creates the speech service. Synthesis requires at least one
// Gemini API key.
func NewService(config *common.SpeechConfig, gemini *common.GeminiConfig, logger arbor.ILogger) (*Service, error) {
	ring, err := NewKeyRing(gemini.APIKeys)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis requires Gemini credentials (set gemini.api_keys or NARRO_GEMINI_API_KEYS): %w", err)
	}

	s := &Service{
		config:  config,
		ring:    ring,
		store:   NewProgressStore(config.WorkDir),
		limiter: rate.NewLimiter(rate.Every(config.RequestDelay), 1),
		logger:  logger,
		clients: make(map[string]*genai.Client),
	}
	s.synth = s.geminiSynthesize
	return s, nil
}

// SetSynthesizeFunc replaces the synthesis backend, used by tests
func (s *Service) SetSynthesizeFunc(fn SynthesizeFunc) {
	s.synth = fn
}

// ResetProgress discards the resume marker for a slug
func (s *Service) ResetProgress(slug string) error {
	return s.store.Reset(slug)
}

// Synthesize produces one WAV file per chunk under workDir and returns the
// segment paths in chunk order. Completed chunks recorded in the progress
// marker are skipped when their files still exist, so an interrupted run
// picks up where it left off.
func (s *Service) Synthesize(ctx context.Context, slug string, chunks []string, workDir string) ([]string, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks to synthesize")
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	progress := s.store.Load(slug)
	if progress.Chunks != 0 && progress.Chunks != len(chunks) {
		// Chunk count changed, the marker belongs to different content
		s.logger.Warn().
			Str("slug", slug).
			Int("marker_chunks", progress.Chunks).
			Int("chunks", len(chunks)).
			Msg("Progress marker does not match chunk count, restarting synthesis")
		if err := s.store.Reset(slug); err != nil {
			return nil, err
		}
		progress = &models.SynthesisProgress{Slug: slug}
	}

	s.ring.SetIndex(progress.KeyIndex)
	if progress.NextChunk > 0 {
		s.logger.Info().
			Str("slug", slug).
			Int("next_chunk", progress.NextChunk).
			Int("key_index", progress.KeyIndex).
			Msg("Resuming synthesis from progress marker")
	}

	segments := make([]string, len(chunks))
	for i, chunk := range chunks {
		path := filepath.Join(workDir, fmt.Sprintf("%s_%03d.wav", slug, i))
		segments[i] = path

		if i < progress.NextChunk {
			if _, err := os.Stat(path); err == nil {
				s.logger.Debug().Int("chunk", i).Str("path", path).Msg("Chunk already synthesized, skipping")
				continue
			}
			s.logger.Warn().Int("chunk", i).Str("path", path).Msg("Completed chunk file is missing, regenerating")
		}

		// Fixed delay between synthesis requests keeps us under quota
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		s.logger.Info().
			Str("slug", slug).
			Int("chunk", i+1).
			Int("chunks", len(chunks)).
			Int("words", transform.CountWords(chunk)).
			Msg("Synthesizing chunk")

		data, mimeType, err := s.synthesizeWithRotation(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}

		if !IsWAV(data) {
			data = ConvertToWAV(data, mimeType)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write segment %s: %w", path, err)
		}

		if err := s.store.Save(&models.SynthesisProgress{
			Slug:      slug,
			NextChunk: i + 1,
			KeyIndex:  s.ring.Index(),
			Chunks:    len(chunks),
		}); err != nil {
			return nil, err
		}
	}

	return segments, nil
}

// synthesizeWithRotation tries the active key and rotates to the next one
// on failure, following the sticky-index rule: once a later key succeeds,
// subsequent chunks keep using it.
func (s *Service) synthesizeWithRotation(ctx context.Context, text string) ([]byte, string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		keyIndex := s.ring.Index()
		data, mimeType, err := s.synth(ctx, s.ring.Current(), s.config.Model, s.config.Voice, text)
		if err == nil {
			return data, mimeType, nil
		}

		s.logger.Warn().
			Int("key_index", keyIndex).
			Int("keys", s.ring.Len()).
			Err(err).
			Msg("Synthesis failed with current key, rotating")

		if !s.ring.Advance() {
			return nil, "", fmt.Errorf("%w: last error: %v", ErrKeysExhausted, err)
		}
	}
}

// geminiSynthesize is the default backend calling the Gemini TTS API
func (s *Service) geminiSynthesize(ctx context.Context, apiKey, model, voice, text string) ([]byte, string, error) {
	client, err := s.clientForKey(ctx, apiKey)
	if err != nil {
		return nil, "", err
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: voice,
				},
			},
		},
	}

	contents := []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(text)},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, "", fmt.Errorf("Gemini TTS request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, "", fmt.Errorf("empty response from Gemini TTS")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, part.InlineData.MIMEType, nil
		}
	}

	return nil, "", fmt.Errorf("no audio data in Gemini TTS response")
}

// clientForKey returns a cached genai client for an API key
func (s *Service) clientForKey(ctx context.Context, apiKey string) (*genai.Client, error) {
	if client, ok := s.clients[apiKey]; ok {
		return client, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	s.clients[apiKey] = client
	return client, nil
}
