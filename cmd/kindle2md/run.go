package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/TakashiThotec/kindle2markdown/internal/automation"
	"github.com/TakashiThotec/kindle2markdown/internal/capture"
	"github.com/TakashiThotec/kindle2markdown/internal/config"
	"github.com/TakashiThotec/kindle2markdown/internal/frame"
	"github.com/TakashiThotec/kindle2markdown/internal/markdown"
	"github.com/TakashiThotec/kindle2markdown/internal/ocr"
	"github.com/TakashiThotec/kindle2markdown/internal/store"
)

var (
	runPages int
	runKey   string
	runLang  string
	runOut   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Page through the open book and render it to Markdown",
	Long: `Page through the book currently open in the reader, capturing and
recognizing every page until the end of the book is detected.

Bring the reader window to the foreground before starting; each
iteration sends the page-forward key, waits for rendering to settle,
then captures and recognizes the page. Cancel with Ctrl-C at any time;
the pages captured so far are still rendered.

Examples:
  kindle2md run                       # capture with configured defaults
  kindle2md run --pages 50            # stop after at most 50 pages
  kindle2md run --lang eng --key right`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := newLogger()
		if err != nil {
			return err
		}

		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("pages") {
			if err := mgr.Set("capture.max_pages", runPages); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("key") {
			if err := mgr.Set("capture.page_key", runKey); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("lang") {
			if err := mgr.Set("ocr.language", runLang); err != nil {
				return err
			}
		}
		mgr.Watch(func(*config.Config) {
			logger.Info("config file changed; new values apply to the next run")
		})
		cfg := mgr.Config()

		runID := uuid.NewString()
		st, err := store.New(cfg.Output.SaveFolder, runID)
		if err != nil {
			return err
		}

		// Archive page images only when retention is on; the loop
		// treats a nil archive as "don't keep images".
		var archive *store.Store
		if cfg.Output.KeepImages {
			archive = st
		}

		loop := capture.New(
			capture.Config{
				RunID:      runID,
				MaxRetries: cfg.Capture.MaxRetries,
				RetryDelay: cfg.Capture.RetryDelay,
				MaxPages:   cfg.Capture.MaxPages,
			},
			capture.NewTerminationOracle(cfg.Capture.MaxNoChange),
			capture.Deps{
				Source: &automation.ExecFrameSource{
					Command: cfg.Capture.CaptureCmd,
					Region:  cfg.Capture.Region,
					Logger:  logger,
				},
				Turner: &automation.ExecPageTurner{
					Command:     cfg.Capture.KeySendCmd,
					Key:         cfg.Capture.PageKey,
					SettleDelay: cfg.Capture.SettleDelay,
					Logger:      logger,
				},
				Detector: frame.NewDetector(cfg.Capture.ChangeThreshold),
				Engine:   ocr.NewTesseract(cfg.OCR.Language, cfg.OCR.PageSegMode),
				Archive:  archive,
				Logger:   logger,
			},
		)

		session := loop.Run(ctx)

		// Partial-result delivery: render whatever was collected, even
		// after a fatal automation failure.
		asm := markdown.Assembler{
			Style:          markdown.BreakStyle(cfg.Output.PageBreak),
			IncludeSummary: cfg.Output.Summary,
		}
		doc := asm.Render(session.Records)

		name := runOut
		if name == "" {
			name = "book.md"
		}
		path, err := st.WriteDocument(name, doc)
		if err != nil {
			return err
		}

		summary := markdown.Summarize(session.Records)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", summary, path)

		return session.Err
	},
}

func init() {
	runCmd.Flags().IntVar(&runPages, "pages", 0, "maximum pages to capture (overrides capture.max_pages)")
	runCmd.Flags().StringVar(&runKey, "key", "", "page-forward key (overrides capture.page_key)")
	runCmd.Flags().StringVar(&runLang, "lang", "", "OCR language spec (overrides ocr.language)")
	runCmd.Flags().StringVar(&runOut, "output", "", "document filename inside the run directory (default book.md)")
}
