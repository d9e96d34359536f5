package main

import (
	"flag"
)

// cliFlags holds the parsed command-line options
type cliFlags struct {
	configFiles configPaths
	voice       string
	outputDir   string
	overwrite   bool
	reset       bool
	showVersion bool
}

// parseArgs parses flags and returns the remaining positional URL
func parseArgs(args []string) (*cliFlags, string, error) {
	flags := &cliFlags{}
	fs := flag.NewFlagSet("narro", flag.ContinueOnError)

	fs.Var(&flags.configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	fs.Var(&flags.configFiles, "c", "Configuration file path (shorthand)")
	fs.StringVar(&flags.voice, "voice", "", "TTS voice name (overrides config)")
	fs.StringVar(&flags.outputDir, "output", "", "Output directory for posts (overrides config)")
	fs.BoolVar(&flags.overwrite, "overwrite", false, "Regenerate the post even if it already exists")
	fs.BoolVar(&flags.reset, "reset", false, "Discard synthesis progress and start from the first chunk")
	fs.BoolVar(&flags.showVersion, "version", false, "Print version information")
	fs.BoolVar(&flags.showVersion, "v", false, "Print version information (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}

	url := ""
	if fs.NArg() > 0 {
		url = fs.Arg(0)
	}
	return flags, url, nil
}
