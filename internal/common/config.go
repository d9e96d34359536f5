package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment  string             `toml:"environment"` // "development" or "production"
	OutputDir    string             `toml:"output_dir"`  // Root of the generated post tree (content/blog/<slug>/)
	Logging      LoggingConfig      `toml:"logging"`
	Fetch        FetchConfig        `toml:"fetch"`
	Summary      SummaryConfig      `toml:"summary"`
	Gemini       GeminiConfig       `toml:"gemini"`
	Claude       ClaudeConfig       `toml:"claude"`
	Speech       SpeechConfig       `toml:"speech"`
	Audio        AudioConfig        `toml:"audio"`
	Illustration IllustrationConfig `toml:"illustration"`
	Post         PostConfig         `toml:"post"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// FetchConfig controls source retrieval for both web articles and YouTube
type FetchConfig struct {
	Timeout      time.Duration `toml:"timeout"`        // Per-request HTTP timeout
	MaxRetries   int           `toml:"max_retries" validate:"gte=0,lte=10"`
	RetryBackoff time.Duration `toml:"retry_backoff"`  // Base delay, doubled per attempt
	UserAgent    string        `toml:"user_agent"`
	CaptionLang  string        `toml:"caption_lang"`   // Preferred YouTube caption language
}

// SummaryConfig selects the narration rewrite provider. Provider "none"
// disables summarization and passes the source text through unchanged.
type SummaryConfig struct {
	Provider    string  `toml:"provider" validate:"oneof=gemini claude none"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens" validate:"gt=0"`
	Temperature float64 `toml:"temperature" validate:"gte=0,lte=2"`
}

type GeminiConfig struct {
	APIKeys []string `toml:"api_keys"` // Rotation pool, first key tried first
}

type ClaudeConfig struct {
	APIKey string `toml:"api_key"`
}

// SpeechConfig controls text-to-speech synthesis
type SpeechConfig struct {
	Model        string        `toml:"model"`
	Voice        string        `toml:"voice"`
	RequestDelay time.Duration `toml:"request_delay"` // Fixed pause between synthesis requests
	ChunkWords   int           `toml:"chunk_words" validate:"gt=0"` // Max words per synthesis chunk
	WorkDir      string        `toml:"work_dir"`      // Segment and progress marker directory
}

type AudioConfig struct {
	FFmpegPath string `toml:"ffmpeg_path"` // Binary name or absolute path
}

// IllustrationConfig controls cover image search and processing
type IllustrationConfig struct {
	UnsplashAccessKey string `toml:"unsplash_access_key"` // Empty disables search, fallback pool is used
	Width             int    `toml:"width" validate:"gt=0"`
	Height            int    `toml:"height" validate:"gt=0"`
	JPEGQuality       int    `toml:"jpeg_quality" validate:"min=1,max=100"`
}

type PostConfig struct {
	Author    string `toml:"author"`
	Overwrite bool   `toml:"overwrite"` // Regenerate posts that already exist
}

// NewDefaultConfig returns configuration with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		OutputDir:   "content/blog",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05.000",
		},
		Fetch: FetchConfig{
			Timeout:      30 * time.Second,
			MaxRetries:   3,
			RetryBackoff: 2 * time.Second,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			CaptionLang:  "en",
		},
		Summary: SummaryConfig{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			MaxTokens:   4096,
			Temperature: 0.3,
		},
		Speech: SpeechConfig{
			Model:        "gemini-2.5-flash-preview-tts",
			Voice:        "Kore",
			RequestDelay: 30 * time.Second,
			ChunkWords:   250,
			WorkDir:      ".narro",
		},
		Audio: AudioConfig{
			FFmpegPath: "ffmpeg",
		},
		Illustration: IllustrationConfig{
			Width:       1280,
			Height:      720,
			JPEGQuality: 85,
		},
		Post: PostConfig{
			Author:    "",
			Overwrite: false,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files, environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NARRO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if dir := os.Getenv("NARRO_OUTPUT_DIR"); dir != "" {
		config.OutputDir = dir
	}

	// Logging configuration
	if level := os.Getenv("NARRO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("NARRO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Fetch configuration
	if timeout := os.Getenv("NARRO_FETCH_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Fetch.Timeout = d
		}
	}
	if retries := os.Getenv("NARRO_FETCH_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			config.Fetch.MaxRetries = r
		}
	}
	if ua := os.Getenv("NARRO_FETCH_USER_AGENT"); ua != "" {
		config.Fetch.UserAgent = ua
	}

	// Summary configuration
	if provider := os.Getenv("NARRO_SUMMARY_PROVIDER"); provider != "" {
		config.Summary.Provider = provider
	}
	if model := os.Getenv("NARRO_SUMMARY_MODEL"); model != "" {
		config.Summary.Model = model
	}

	// API credentials. GEMINI_API_KEY is honored as a single-key pool for
	// parity with the Google SDK's own convention.
	if keys := os.Getenv("NARRO_GEMINI_API_KEYS"); keys != "" {
		pool := []string{}
		for _, k := range strings.Split(keys, ",") {
			if trimmed := strings.TrimSpace(k); trimmed != "" {
				pool = append(pool, trimmed)
			}
		}
		if len(pool) > 0 {
			config.Gemini.APIKeys = pool
		}
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" && len(config.Gemini.APIKeys) == 0 {
		config.Gemini.APIKeys = []string{key}
	}
	if key := os.Getenv("NARRO_CLAUDE_API_KEY"); key != "" {
		config.Claude.APIKey = key
	} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && config.Claude.APIKey == "" {
		config.Claude.APIKey = key
	}

	// Speech configuration
	if voice := os.Getenv("NARRO_SPEECH_VOICE"); voice != "" {
		config.Speech.Voice = voice
	}
	if model := os.Getenv("NARRO_SPEECH_MODEL"); model != "" {
		config.Speech.Model = model
	}
	if delay := os.Getenv("NARRO_SPEECH_REQUEST_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.Speech.RequestDelay = d
		}
	}

	// Audio configuration
	if path := os.Getenv("NARRO_FFMPEG_PATH"); path != "" {
		config.Audio.FFmpegPath = path
	}

	// Illustration configuration
	if key := os.Getenv("NARRO_UNSPLASH_ACCESS_KEY"); key != "" {
		config.Illustration.UnsplashAccessKey = key
	} else if key := os.Getenv("UNSPLASH_ACCESS_KEY"); key != "" && config.Illustration.UnsplashAccessKey == "" {
		config.Illustration.UnsplashAccessKey = key
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, voice, outputDir string, overwrite bool) {
	if voice != "" {
		config.Speech.Voice = voice
	}
	if outputDir != "" {
		config.OutputDir = outputDir
	}
	if overwrite {
		config.Post.Overwrite = true
	}
}

// Validate validates the configuration using go-playground/validator tags
// plus cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// A missing Gemini key pool is not a config error: summarization
	// degrades to passthrough, only synthesis requires credentials and
	// that is reported at synthesis time.
	if c.Summary.Provider == "claude" && c.Claude.APIKey == "" {
		return fmt.Errorf("summary provider is claude but no claude api_key is configured")
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.Speech.RequestDelay < 0 {
		return fmt.Errorf("speech request_delay must not be negative, got %s", c.Speech.RequestDelay)
	}
	return nil
}

// IsProduction returns true when running in production environment
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
