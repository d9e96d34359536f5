package tts

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"
)

// Defaults for Gemini TTS output when the MIME type omits parameters
const (
	defaultBitsPerSample = 16
	defaultSampleRate    = 24000
)

// audioFormat holds the PCM parameters parsed from a MIME type
type audioFormat struct {
	BitsPerSample int
	SampleRate    int
}

// parseAudioMIMEType extracts bits per sample and sample rate from a MIME
// type such as "audio/L16;rate=24000;codec=pcm". Missing or malformed
// parameters fall back to the service defaults.
func parseAudioMIMEType(mimeType string) audioFormat {
	format := audioFormat{
		BitsPerSample: defaultBitsPerSample,
		SampleRate:    defaultSampleRate,
	}

	for _, param := range strings.Split(mimeType, ";") {
		param = strings.TrimSpace(param)
		lower := strings.ToLower(param)
		switch {
		case strings.HasPrefix(lower, "rate="):
			if rate, err := strconv.Atoi(param[len("rate="):]); err == nil && rate > 0 {
				format.SampleRate = rate
			}
		case strings.HasPrefix(lower, "audio/l"):
			if bits, err := strconv.Atoi(param[len("audio/L"):]); err == nil && bits > 0 {
				format.BitsPerSample = bits
			}
		}
	}
	return format
}

// ConvertToWAV wraps raw PCM audio in a RIFF/WAVE header built from the
// MIME type parameters. Gemini TTS returns mono linear PCM.
func ConvertToWAV(audioData []byte, mimeType string) []byte {
	format := parseAudioMIMEType(mimeType)

	const numChannels = 1
	bytesPerSample := format.BitsPerSample / 8
	blockAlign := numChannels * bytesPerSample
	byteRate := format.SampleRate * blockAlign
	dataSize := len(audioData)

	var buf bytes.Buffer
	buf.Grow(44 + dataSize)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16)) // PCM header size
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // PCM format
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(format.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(format.BitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(audioData)

	return buf.Bytes()
}

// IsWAV reports whether data already carries a RIFF/WAVE header
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}
