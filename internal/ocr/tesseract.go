package ocr

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract is the default OCR engine, backed by the system Tesseract
// installation through gosseract.
//
// Tesseract operates on files, so each recognition writes the
// (preprocessed) page to a temporary PNG and removes it afterwards.
type Tesseract struct {
	// Language is a Tesseract language spec such as "eng" or
	// "jpn+jpn_vert+eng". The corresponding traineddata files must be
	// installed.
	Language string

	// PageSegMode is the Tesseract page segmentation mode. Mode 6
	// (assume a single uniform block of text) suits full-page book
	// scans.
	PageSegMode int

	// SkipPreprocess disables the grayscale/contrast pass, e.g. when
	// re-running OCR over already-clean archived screenshots.
	SkipPreprocess bool
}

// NewTesseract returns a Tesseract engine for the given language spec.
func NewTesseract(language string, pageSegMode int) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{Language: language, PageSegMode: pageSegMode}
}

// Recognize runs Tesseract over the page image and returns the
// recognized text.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	src := img
	if !t.SkipPreprocess {
		src = Preprocess(img)
	}

	tmp, err := os.CreateTemp("", "kindle2md-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := imaging.Save(src, tmpPath); err != nil {
		return "", fmt.Errorf("failed to encode temp image: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(t.Language, "+")...); err != nil {
		return "", fmt.Errorf("failed to set language %q: %w", t.Language, err)
	}
	if t.PageSegMode > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(t.PageSegMode)); err != nil {
			return "", fmt.Errorf("failed to set page segmentation mode %d: %w", t.PageSegMode, err)
		}
	}
	if err := client.SetImage(tmpPath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}
