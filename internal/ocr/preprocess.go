package ocr

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"
)

// contrastBoost is applied after grayscale conversion. E-reader
// renderers use light gray text on off-white backgrounds at some font
// weights; a mild boost keeps Tesseract's binarization from eating
// thin strokes.
const contrastBoost = 0.25

// Preprocess prepares a captured page for recognition: grayscale
// conversion followed by a mild contrast boost. The input image is not
// modified.
func Preprocess(img image.Image) *image.RGBA {
	gray := effect.Grayscale(img)
	return adjust.Contrast(gray, contrastBoost)
}
