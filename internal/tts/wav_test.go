package tts

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAudioMIMEType(t *testing.T) {
	tests := []struct {
		mimeType string
		wantBits int
		wantRate int
	}{
		{"audio/L16;rate=24000", 16, 24000},
		{"audio/L16; rate=24000; codec=pcm", 16, 24000},
		{"audio/L24;rate=48000", 24, 48000},
		{"audio/L16;rate=", 16, 24000},
		{"audio/mpeg", 16, 24000},
		{"", 16, 24000},
	}

	for _, tt := range tests {
		format := parseAudioMIMEType(tt.mimeType)
		assert.Equal(t, tt.wantBits, format.BitsPerSample, "mime %q", tt.mimeType)
		assert.Equal(t, tt.wantRate, format.SampleRate, "mime %q", tt.mimeType)
	}
}

func TestConvertToWAV(t *testing.T) {
	pcm := make([]byte, 960) // 20ms of 16-bit mono at 24kHz
	wav := ConvertToWAV(pcm, "audio/L16;rate=24000")

	require.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, "data", string(wav[36:40]))

	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]), "PCM format")
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]), "mono")
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]), "sample rate")
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate")
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]), "bits per sample")
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(wav[40:44]))
}

func TestIsWAV(t *testing.T) {
	wav := ConvertToWAV([]byte{0, 0}, "audio/L16;rate=24000")
	assert.True(t, IsWAV(wav))
	assert.False(t, IsWAV([]byte("RIFFxxxx")))
	assert.False(t, IsWAV([]byte("not audio at all")))
}
