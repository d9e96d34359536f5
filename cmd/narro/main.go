// -----------------------------------------------------------------------
// narro converts a web article or YouTube video into a narrated blog post:
// fetched text is summarized, synthesized to audio, illustrated, and laid
// out as a static-site post directory.
// -----------------------------------------------------------------------

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ternarybob/narro/internal/common"
	"github.com/ternarybob/narro/internal/pipeline"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	flags, url, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if flags.showVersion {
		fmt.Printf("Narro version %s\n", common.GetFullVersion())
		return 0
	}
	if url == "" {
		fmt.Fprintln(os.Stderr, "Usage: narro [flags] <url>")
		fmt.Fprintln(os.Stderr, "Run 'narro -help' for flag details.")
		return 1
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		fmt.Fprintln(os.Stderr, "Invalid URL: must start with http:// or https://")
		return 1
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> files -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	configFiles := flags.configFiles
	if len(configFiles) == 0 {
		if _, err := os.Stat("narro.toml"); err == nil {
			configFiles = append(configFiles, "narro.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		// InitLogger has not run yet, fall back to the default console logger
		common.GetLogger().Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		return 1
	}

	common.ApplyFlagOverrides(config, flags.voice, flags.outputDir, flags.overwrite)

	logger := common.InitLogger(config)
	common.PrintBanner(common.LoadVersionFromFile())

	if err := config.Validate(); err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return 1
	}

	logger.Info().
		Strs("config_files", configFiles).
		Str("output_dir", config.OutputDir).
		Str("voice", config.Speech.Voice).
		Str("summary_provider", config.Summary.Provider).
		Int("gemini_keys", len(config.Gemini.APIKeys)).
		Msg("Configuration loaded")

	p, err := pipeline.NewDefault(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize pipeline")
		return 1
	}

	// Cancel the run on Ctrl+C; synthesis progress survives on disk
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := p.Run(ctx, url, flags.reset)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("Interrupted; rerun the same command to resume synthesis")
		} else {
			logger.Error().Err(err).Str("url", url).Msg("Conversion failed")
		}
		return 1
	}

	if result.Skipped {
		logger.Info().Str("slug", result.Slug).Msg("Post already exists; use -overwrite to regenerate")
		return 0
	}

	for _, degradation := range result.Degradations {
		logger.Warn().Str("slug", result.Slug).Msg("Degraded: " + degradation)
	}
	logger.Info().
		Str("slug", result.Slug).
		Str("post", result.Record.Paths.Markdown).
		Msg("Post generated")
	return 0
}
