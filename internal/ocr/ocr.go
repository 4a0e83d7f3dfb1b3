// Package ocr turns captured page images into text.
//
// The engine is a narrow interface so the capture loop never depends on
// a concrete OCR backend: the default is Tesseract via gosseract, and
// tests substitute an in-process fake. OCR failure for a single page is
// expected operational noise, not a pipeline error — callers record the
// failure and keep going.
package ocr

import (
	"context"
	"image"
)

// Engine recognizes the text on a single page image.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Func adapts a plain function to the Engine interface.
type Func func(ctx context.Context, img image.Image) (string, error)

func (f Func) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}
