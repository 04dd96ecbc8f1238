// Package cli implements the rdapnorm command-line interface using cobra.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "0.1.0-dev"

// Execute runs the root command.
func Execute() error {
	return rootCmd().Execute()
}

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "rdapnorm",
		Short: "Normalize RDAP responses and verify signed cache entries",
		Long: `rdapnorm converts registry-specific RDAP JSON into the canonical
normalized document, applying jurisdiction-aware PII redaction, and
verifies signed cache entries against the five-layer validator.

Quick start:
  rdapnorm normalize --registry verisign --jurisdiction EU response.json
  rdapnorm verify-entry --master-key-hex <hex> entry.json`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	cmd.AddCommand(
		normalizeCmd(&verbose),
		verifyEntryCmd(&verbose),
	)

	return cmd
}

// newLogger builds the CLI logger: human-readable on stderr, debug level
// only when requested.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
