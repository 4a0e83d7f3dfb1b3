package frame

import (
	"image"
	"math/bits"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// dHash grid: 9 columns x 8 rows yields 8 horizontal comparisons per
// row, one bit each, 64 bits total.
const (
	hashCols = 9
	hashRows = 8
)

// Fingerprint is a 64-bit perceptual difference hash of a frame.
type Fingerprint uint64

// Distance returns the Hamming distance between two fingerprints: the
// number of downsampled luminance gradients that flipped between the
// two frames.
func Distance(a, b Fingerprint) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// ComputeFingerprint downsamples the image to a 9x8 luminance grid and
// packs the horizontal gradient signs into a Fingerprint.
func ComputeFingerprint(img image.Image) Fingerprint {
	small := imaging.Resize(img, hashCols, hashRows, imaging.Lanczos)

	var lum [hashRows][hashCols]float64
	for y := 0; y < hashRows; y++ {
		for x := 0; x < hashCols; x++ {
			lum[y][x] = luminance(small, x, y)
		}
	}

	var fp Fingerprint
	bit := 0
	for y := 0; y < hashRows; y++ {
		for x := 0; x < hashCols-1; x++ {
			if lum[y][x+1] > lum[y][x] {
				fp |= 1 << bit
			}
			bit++
		}
	}
	return fp
}

// luminance returns the perceptual lightness of a pixel in [0,1],
// using the L channel of CIE Lab rather than a plain RGB average so
// color shifts that read as equally bright do not flip hash bits.
func luminance(img image.Image, x, y int) float64 {
	pt := img.Bounds().Min.Add(image.Pt(x, y))
	c, ok := colorful.MakeColor(img.At(pt.X, pt.Y))
	if !ok {
		// Fully transparent pixel; treat as black.
		return 0
	}
	l, _, _ := c.Lab()
	return l
}
