package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TakashiThotec/kindle2markdown/internal/capture"
	"github.com/TakashiThotec/kindle2markdown/internal/config"
	"github.com/TakashiThotec/kindle2markdown/internal/frame"
	"github.com/TakashiThotec/kindle2markdown/internal/markdown"
	"github.com/TakashiThotec/kindle2markdown/internal/ocr"
	"github.com/TakashiThotec/kindle2markdown/internal/store"
)

var (
	ocrFolder string
	ocrLang   string
	ocrOut    string
	ocrStatus string
)

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Re-run OCR over a folder of saved page images",
	Long: `Recognize an existing folder of page screenshots (for example a
previous run's archive) and render them into a Markdown document,
without driving the reader.

Images are processed in filename order. A JSON progress file can be
written for external monitoring with --status.

Examples:
  kindle2md ocr --folder ~/kindle2md/<run-id>
  kindle2md ocr --folder ./scans --lang eng --status ./progress.json`,
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
		cfg := mgr.Config()

		lang := cfg.OCR.Language
		if ocrLang != "" {
			lang = ocrLang
		}

		st, err := store.Open(ocrFolder)
		if err != nil {
			return err
		}
		paths, err := st.ListImages()
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no page images found in %s", ocrFolder)
		}

		engine := ocr.NewTesseract(lang, cfg.OCR.PageSegMode)
		// Archived screenshots went through preprocessing once already.
		engine.SkipPreprocess = true

		records := make([]capture.PageRecord, 0, len(paths))
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				logger.Info("re-OCR cancelled", "done", len(records), "total", len(paths))
				break
			}

			if ocrStatus != "" {
				_ = store.WriteStatus(ocrStatus, store.Status{
					Page: i + 1, Total: len(paths), State: store.StateRunning,
				})
			}

			rec := capture.PageRecord{Seq: i + 1, ImagePath: path}
			img, err := st.LoadImage(path)
			if err != nil {
				logger.Warn("failed to load page image", "path", path, "error", err)
				rec.LowConfidence = true
			} else {
				rec.Fingerprint = frame.ComputeFingerprint(img)
				text, err := engine.Recognize(ctx, img)
				if err != nil {
					logger.Warn("recognition failed", "path", path, "error", err)
					rec.LowConfidence = true
				} else {
					rec.Text = text
				}
			}
			records = append(records, rec)
			logger.Info("page recognized", "page", rec.Seq, "total", len(paths), "low_confidence", rec.LowConfidence)
		}

		asm := markdown.Assembler{
			Style:          markdown.BreakStyle(cfg.Output.PageBreak),
			IncludeSummary: cfg.Output.Summary,
		}
		doc := asm.Render(records)

		name := ocrOut
		if name == "" {
			name = "book.md"
		}
		path, err := st.WriteDocument(name, doc)
		if err != nil {
			return err
		}

		if ocrStatus != "" {
			_ = store.WriteStatus(ocrStatus, store.Status{
				Page: len(records), Total: len(paths), State: store.StateDone,
			})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", markdown.Summarize(records), filepath.Clean(path))
		return nil
	},
}

func init() {
	ocrCmd.Flags().StringVar(&ocrFolder, "folder", "", "folder containing page images (required)")
	ocrCmd.Flags().StringVar(&ocrLang, "lang", "", "OCR language spec (overrides ocr.language)")
	ocrCmd.Flags().StringVar(&ocrOut, "output", "", "document filename inside the folder (default book.md)")
	ocrCmd.Flags().StringVar(&ocrStatus, "status", "", "write JSON progress to this file")
	_ = ocrCmd.MarkFlagRequired("folder")
}
