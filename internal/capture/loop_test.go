package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/TakashiThotec/kindle2markdown/internal/automation"
	"github.com/TakashiThotec/kindle2markdown/internal/frame"
	"github.com/TakashiThotec/kindle2markdown/internal/ocr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

// fakeSource returns the same frame image every capture, optionally
// failing on scripted attempts.
type fakeSource struct {
	calls    int
	failures map[int]error
}

func (s *fakeSource) Capture(context.Context) (image.Image, error) {
	s.calls++
	if err := s.failures[s.calls]; err != nil {
		return nil, err
	}
	return testImage(), nil
}

// fakeTurner counts advances, optionally failing from a given call on.
type fakeTurner struct {
	calls    int
	failFrom int // 0 = never fail
}

func (t *fakeTurner) Advance(context.Context) error {
	t.calls++
	if t.failFrom > 0 && t.calls >= t.failFrom {
		return &automation.AutomationError{Err: errors.New("target window lost focus")}
	}
	return nil
}

// fakeDetector hands out scripted fingerprints in capture order and
// treats any fingerprint difference as a change.
type fakeDetector struct {
	fps []frame.Fingerprint
	i   int
}

func (d *fakeDetector) Fingerprint(*frame.Frame) frame.Fingerprint {
	fp := d.fps[len(d.fps)-1]
	if d.i < len(d.fps) {
		fp = d.fps[d.i]
	}
	d.i++
	return fp
}

func (d *fakeDetector) Changed(prev *frame.Fingerprint, cur frame.Fingerprint) bool {
	return prev == nil || *prev != cur
}

// pagingEngine returns "Page1", "Page2", ... per recognition.
func pagingEngine() ocr.Engine {
	n := 0
	return ocr.Func(func(context.Context, image.Image) (string, error) {
		n++
		return fmt.Sprintf("Page%d", n), nil
	})
}

func newTestLoop(cfg Config, oracle TerminationOracle, det frame.Detector, engine ocr.Engine, source automation.FrameSource, turner automation.PageTurner) *Loop {
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	return New(cfg, oracle, Deps{
		Source:   source,
		Turner:   turner,
		Detector: det,
		Engine:   engine,
		Logger:   testLogger(),
	})
}

func TestRun_EndToEnd(t *testing.T) {
	// Frames A, B, B, C then end-of-book: the repeated B frame must
	// not produce a duplicate page.
	det := &fakeDetector{fps: []frame.Fingerprint{10, 20, 20, 30, 30, 30, 30}}
	loop := newTestLoop(
		Config{MaxRetries: 3},
		NewTerminationOracle(3),
		det, pagingEngine(), &fakeSource{}, &fakeTurner{},
	)

	session := loop.Run(context.Background())

	if session.Err != nil {
		t.Fatalf("session error: %v", session.Err)
	}
	if len(session.Records) != 3 {
		t.Fatalf("records: got %d, want 3", len(session.Records))
	}
	for i, want := range []string{"Page1", "Page2", "Page3"} {
		rec := session.Records[i]
		if rec.Text != want {
			t.Errorf("record %d text: got %q, want %q", i, rec.Text, want)
		}
		if rec.Seq != i+1 {
			t.Errorf("record %d seq: got %d, want %d", i, rec.Seq, i+1)
		}
		if rec.LowConfidence {
			t.Errorf("record %d unexpectedly low-confidence", i)
		}
	}
}

func TestRun_AlternatingFramesAllAccepted(t *testing.T) {
	det := &fakeDetector{fps: []frame.Fingerprint{1, 2, 3, 4, 5}}
	loop := newTestLoop(
		Config{MaxRetries: 3, MaxPages: 5},
		NewTerminationOracle(3),
		det, pagingEngine(), &fakeSource{}, &fakeTurner{},
	)

	session := loop.Run(context.Background())

	if session.Err != nil {
		t.Fatalf("session error: %v", session.Err)
	}
	if len(session.Records) != 5 {
		t.Errorf("records: got %d, want 5 (every alternating frame accepted)", len(session.Records))
	}
}

func TestRun_RepeatedFramesCollapseToOneRecord(t *testing.T) {
	// Four fingerprint-identical frames: one record, streak ends at 3.
	det := &fakeDetector{fps: []frame.Fingerprint{7, 7, 7, 7}}
	loop := newTestLoop(
		Config{MaxRetries: 3},
		NewTerminationOracle(3),
		det, pagingEngine(), &fakeSource{}, &fakeTurner{},
	)

	session := loop.Run(context.Background())

	if session.Err != nil {
		t.Fatalf("session error: %v", session.Err)
	}
	if len(session.Records) != 1 {
		t.Errorf("records: got %d, want 1", len(session.Records))
	}
	if session.NoChangeStreak != 3 {
		t.Errorf("final streak: got %d, want 3", session.NoChangeStreak)
	}
}

func TestRun_CancellationDeliversPartialRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel right after the second page is recognized; the two
	// collected pages must survive and no fatal error may be raised.
	n := 0
	engine := ocr.Func(func(context.Context, image.Image) (string, error) {
		n++
		if n == 2 {
			cancel()
		}
		return fmt.Sprintf("Page%d", n), nil
	})

	det := &fakeDetector{fps: []frame.Fingerprint{1, 2, 3, 4, 5}}
	loop := newTestLoop(
		Config{MaxRetries: 3, MaxPages: 5},
		NewTerminationOracle(3),
		det, engine, &fakeSource{}, &fakeTurner{},
	)

	session := loop.Run(ctx)

	if session.Err != nil {
		t.Errorf("cancellation must not set a fatal error, got: %v", session.Err)
	}
	if len(session.Records) != 2 {
		t.Errorf("records after cancellation: got %d, want 2", len(session.Records))
	}
}

func TestRun_RetryExhaustionKeepsCollectedPages(t *testing.T) {
	// The turner dies after two successful page turns; the run must
	// end with the fatal error set and both pages intact.
	det := &fakeDetector{fps: []frame.Fingerprint{1, 2}}
	loop := newTestLoop(
		Config{MaxRetries: 2},
		NewTerminationOracle(3),
		det, pagingEngine(), &fakeSource{}, &fakeTurner{failFrom: 3},
	)

	session := loop.Run(context.Background())

	if !errors.Is(session.Err, ErrRetriesExhausted) {
		t.Errorf("session error: got %v, want ErrRetriesExhausted", session.Err)
	}
	if len(session.Records) != 2 {
		t.Errorf("records: got %d, want 2", len(session.Records))
	}
}

func TestRun_TransientCaptureErrorIsRetried(t *testing.T) {
	source := &fakeSource{failures: map[int]error{
		1: &automation.CaptureError{Err: errors.New("window obscured")},
	}}
	det := &fakeDetector{fps: []frame.Fingerprint{1}}
	loop := newTestLoop(
		Config{MaxRetries: 3, MaxPages: 1},
		NewTerminationOracle(3),
		det, pagingEngine(), source, &fakeTurner{},
	)

	session := loop.Run(context.Background())

	if session.Err != nil {
		t.Fatalf("session error: %v", session.Err)
	}
	if len(session.Records) != 1 {
		t.Errorf("records: got %d, want 1", len(session.Records))
	}
	if source.calls != 2 {
		t.Errorf("capture calls: got %d, want 2 (one failure, one retry)", source.calls)
	}
}

func TestRun_OCRFailureNeverAbortsTheRun(t *testing.T) {
	n := 0
	engine := ocr.Func(func(context.Context, image.Image) (string, error) {
		n++
		if n == 2 {
			return "", errors.New("tesseract crashed")
		}
		return fmt.Sprintf("Page%d", n), nil
	})

	det := &fakeDetector{fps: []frame.Fingerprint{1, 2, 3}}
	loop := newTestLoop(
		Config{MaxRetries: 3, MaxPages: 3},
		NewTerminationOracle(3),
		det, engine, &fakeSource{}, &fakeTurner{},
	)

	session := loop.Run(context.Background())

	if session.Err != nil {
		t.Fatalf("session error: %v", session.Err)
	}
	if len(session.Records) != 3 {
		t.Fatalf("records: got %d, want 3", len(session.Records))
	}
	rec := session.Records[1]
	if !rec.LowConfidence {
		t.Error("failed page not flagged low-confidence")
	}
	if rec.Text != "" {
		t.Errorf("failed page text: got %q, want empty", rec.Text)
	}
	if session.Records[0].LowConfidence || session.Records[2].LowConfidence {
		t.Error("healthy pages flagged low-confidence")
	}
}

func TestRun_MaxPagesCap(t *testing.T) {
	det := &fakeDetector{fps: []frame.Fingerprint{1, 2, 3, 4, 5, 6, 7, 8}}
	loop := newTestLoop(
		Config{MaxRetries: 3, MaxPages: 4},
		NewTerminationOracle(3),
		det, pagingEngine(), &fakeSource{}, &fakeTurner{},
	)

	session := loop.Run(context.Background())

	if session.Err != nil {
		t.Fatalf("session error: %v", session.Err)
	}
	if len(session.Records) != 4 {
		t.Errorf("records: got %d, want 4 (capped)", len(session.Records))
	}
}
