// Package frame holds captured page frames and decides whether two
// consecutive captures actually show different page content.
//
// Raw pixel equality is the wrong tool for that decision: font
// anti-aliasing and rendering jitter make visually identical re-renders
// differ pixel-by-pixel, while a perceptual fingerprint of a coarse
// downsample is stable across jitter yet clearly separates real page
// turns. The fingerprint here is a 64-bit difference hash (dHash):
// the frame is downsampled to a 9x8 luminance grid and each bit records
// whether luminance rises between horizontal neighbors.
package frame

import (
	"image"
	"time"
)

// Frame is one captured screenshot of the reader region.
//
// A Frame is immutable after capture: the loop iteration that created
// it owns it and hands it by reference to the detector and the OCR
// engine.
type Frame struct {
	// Image is the captured region.
	Image image.Image

	// Seq is the monotonically increasing capture index, starting at 1.
	Seq int

	// CapturedAt is when the screenshot was taken.
	CapturedAt time.Time
}
