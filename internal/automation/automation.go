// Package automation provides the capability interfaces the capture
// pipeline uses to drive the host desktop: grabbing a screenshot of a
// screen region and delivering the page-turn keystroke to the reader
// application.
//
// Both capabilities are modeled as narrow interfaces so any concrete
// backend (an external capture binary, a native API binding, a test
// fake) can be substituted without touching the capture loop. The
// default implementations shell out to user-configurable commands,
// which is how the tool stays portable across desktops that each have
// their own screenshot and key-injection utilities.
//
// Retry policy lives in the capture loop, not here: implementations
// report a single attempt's outcome and never retry internally.
package automation

import (
	"context"
	"image"
)

// FrameSource captures a screenshot of the configured screen region.
type FrameSource interface {
	// Capture returns a fresh capture of the region. It fails with a
	// *CaptureError when the screenshot cannot be obtained or the
	// region falls outside the captured image.
	Capture(ctx context.Context) (image.Image, error)
}

// PageTurner delivers the page-forward command to the reader and waits
// for the application's rendering to settle before returning.
type PageTurner interface {
	// Advance fails with a *AutomationError when the keystroke cannot
	// be delivered (for example the target window lost focus).
	Advance(ctx context.Context) error
}

// CaptureError reports a failed screenshot attempt.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return "screen capture failed: " + e.Err.Error()
}

func (e *CaptureError) Unwrap() error { return e.Err }

// AutomationError reports an undeliverable page-advance command.
type AutomationError struct {
	Err error
}

func (e *AutomationError) Error() string {
	return "page advance failed: " + e.Err.Error()
}

func (e *AutomationError) Unwrap() error { return e.Err }
