package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "kindle2md",
	Short: "Digitize an e-reader book into a Markdown document",
	Long: `kindle2md pages through an e-reader desktop application, captures a
screenshot per page, recognizes the text with Tesseract and assembles
everything into one ordered Markdown document.

The pipeline detects when a page actually changed (so duplicate renders
are never emitted twice), stops automatically when page turns no longer
change the screen, and always delivers the pages collected so far even
when a run is cancelled or fails partway.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.kindle2md/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(ocrCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the run logger on stderr so stdout stays clean for
// document output with --stdout.
func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})), nil
}
