package automation

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region is the screen rectangle captured for each page.
type Region struct {
	X      int `mapstructure:"x" json:"x"`
	Y      int `mapstructure:"y" json:"y"`
	Width  int `mapstructure:"width" json:"width"`
	Height int `mapstructure:"height" json:"height"`
}

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Validate reports whether the region describes a non-empty rectangle.
func (r Region) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("region %dx%d at (%d,%d): width and height must be positive", r.Width, r.Height, r.X, r.Y)
	}
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("region origin (%d,%d) must not be negative", r.X, r.Y)
	}
	return nil
}

// CropTo extracts the region from a full-screen capture. The region
// must lie entirely inside the captured image; an off-screen region is
// a configuration error, not something to silently clamp.
func (r Region) CropTo(img image.Image) (image.Image, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	rect := r.Rect()
	if !rect.In(bounds) {
		return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside captured image bounds (%d,%d)-(%d,%d)",
			rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y,
			bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	return imaging.Crop(img, rect), nil
}
