package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "narro.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "content/blog", config.OutputDir)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, 250, config.Speech.ChunkWords)
	assert.Equal(t, 30*time.Second, config.Speech.RequestDelay)
	assert.Equal(t, "ffmpeg", config.Audio.FFmpegPath)
	assert.Equal(t, 85, config.Illustration.JPEGQuality)
	assert.False(t, config.Post.Overwrite)
}

func TestLoadFromFiles_FileOverridesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
output_dir = "out/posts"

[logging]
level = "debug"

[speech]
voice = "Puck"
chunk_words = 100
`)

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "out/posts", config.OutputDir)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, "Puck", config.Speech.Voice)
	assert.Equal(t, 100, config.Speech.ChunkWords)
	// Untouched values keep defaults
	assert.Equal(t, "ffmpeg", config.Audio.FFmpegPath)
}

func TestLoadFromFiles_LaterFileWins(t *testing.T) {
	base := writeTempConfig(t, `output_dir = "base"`)
	override := writeTempConfig(t, `output_dir = "override"`)

	config, err := LoadFromFiles(base, override)
	require.NoError(t, err)
	assert.Equal(t, "override", config.OutputDir)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("NARRO_LOG_LEVEL", "warn")
	t.Setenv("NARRO_GEMINI_API_KEYS", "key-a, key-b ,key-c")
	t.Setenv("NARRO_SPEECH_REQUEST_DELAY", "5s")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, []string{"key-a", "key-b", "key-c"}, config.Gemini.APIKeys)
	assert.Equal(t, 5*time.Second, config.Speech.RequestDelay)
}

func TestApplyEnvOverrides_SingleKeyFallback(t *testing.T) {
	t.Setenv("NARRO_GEMINI_API_KEYS", "")
	t.Setenv("GEMINI_API_KEY", "solo-key")

	config, err := LoadFromFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"solo-key"}, config.Gemini.APIKeys)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, "Charon", "custom/out", true)

	assert.Equal(t, "Charon", config.Speech.Voice)
	assert.Equal(t, "custom/out", config.OutputDir)
	assert.True(t, config.Post.Overwrite)

	// Empty values leave config untouched
	ApplyFlagOverrides(config, "", "", false)
	assert.Equal(t, "Charon", config.Speech.Voice)
	assert.True(t, config.Post.Overwrite)
}

func TestValidate(t *testing.T) {
	config := NewDefaultConfig()
	assert.NoError(t, config.Validate())

	claude := NewDefaultConfig()
	claude.Summary.Provider = "claude"
	assert.Error(t, claude.Validate(), "claude provider without key must fail")

	claude.Claude.APIKey = "sk-test"
	assert.NoError(t, claude.Validate())

	badProvider := NewDefaultConfig()
	badProvider.Summary.Provider = "openai"
	assert.Error(t, badProvider.Validate())

	badQuality := NewDefaultConfig()
	badQuality.Illustration.JPEGQuality = 0
	assert.Error(t, badQuality.Validate())
}

func TestIsProduction(t *testing.T) {
	config := NewDefaultConfig()
	assert.False(t, config.IsProduction())

	config.Environment = "production"
	assert.True(t, config.IsProduction())

	config.Environment = "PRODUCTION"
	assert.True(t, config.IsProduction())
}
