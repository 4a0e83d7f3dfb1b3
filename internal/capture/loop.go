package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/TakashiThotec/kindle2markdown/internal/automation"
	"github.com/TakashiThotec/kindle2markdown/internal/frame"
	"github.com/TakashiThotec/kindle2markdown/internal/ocr"
	"github.com/TakashiThotec/kindle2markdown/internal/store"
)

// ErrRetriesExhausted means a transient automation or capture failure
// persisted through every retry attempt. The run stops, but the pages
// collected before the failure are still delivered.
var ErrRetriesExhausted = errors.New("automation retries exhausted")

// Config tunes the capture loop.
type Config struct {
	// RunID names the session. Empty means a fresh UUID.
	RunID string

	// MaxRetries is the attempt budget for transient advance/capture
	// failures. Values below 1 are clamped to 1.
	MaxRetries uint

	// RetryDelay is the initial backoff delay between attempts; the
	// delay doubles per attempt.
	RetryDelay time.Duration

	// MaxPages caps accepted pages per run as a safety net alongside
	// the termination oracle. Zero means no cap.
	MaxPages int
}

// Deps are the collaborators the loop drives. Source, Turner, Detector
// and Engine are required; Archive and Logger are optional.
type Deps struct {
	Source   automation.FrameSource
	Turner   automation.PageTurner
	Detector frame.Detector
	Engine   ocr.Engine

	// Archive, when set, retains every accepted page image.
	Archive *store.Store

	Logger *slog.Logger
}

// Loop is the capture orchestrator: it repeatedly turns the page,
// captures a frame, checks whether the content changed, and OCRs
// changed frames into page records, until the termination oracle (or
// cancellation, or a fatal automation failure) ends the run.
//
// Execution is single-threaded by design: only one page can be on
// screen at a time, so the display is the ordering bottleneck and
// records are appended strictly in capture order.
type Loop struct {
	cfg    Config
	source automation.FrameSource
	turner automation.PageTurner
	det    frame.Detector
	engine ocr.Engine
	arch   *store.Store
	oracle TerminationOracle
	logger *slog.Logger
}

// New assembles a capture loop.
func New(cfg Config, oracle TerminationOracle, deps Deps) *Loop {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		cfg:    cfg,
		source: deps.Source,
		turner: deps.Turner,
		det:    deps.Detector,
		engine: deps.Engine,
		arch:   deps.Archive,
		oracle: oracle,
		logger: logger,
	}
}

// Run drives the pipeline until termination and returns the session
// with every accepted page record, in capture order.
//
// Cancellation of ctx is the user-facing stop: the loop notices it at
// the top of the next iteration, keeps everything collected so far and
// returns with a nil session error. Only exhausted retries set
// Session.Err.
func (l *Loop) Run(ctx context.Context) *Session {
	session := NewSession(l.cfg.RunID)
	l.logger.Info("capture run started", "run_id", session.ID)

	var lastFP *frame.Fingerprint
	captures := 0

	for {
		if ctx.Err() != nil {
			l.logger.Info("capture cancelled", "pages", len(session.Records))
			break
		}
		if l.cfg.MaxPages > 0 && len(session.Records) >= l.cfg.MaxPages {
			l.logger.Info("page cap reached", "pages", len(session.Records))
			break
		}

		// Advancing
		if err := l.withRetry(ctx, "advance", func() error {
			return l.turner.Advance(ctx)
		}); err != nil {
			if ctx.Err() != nil {
				break
			}
			session.Err = fmt.Errorf("advancing page: %w", err)
			break
		}

		// Capturing
		var img image.Image
		if err := l.withRetry(ctx, "capture", func() error {
			var cerr error
			img, cerr = l.source.Capture(ctx)
			return cerr
		}); err != nil {
			if ctx.Err() != nil {
				break
			}
			session.Err = fmt.Errorf("capturing frame: %w", err)
			break
		}

		captures++
		f := &frame.Frame{Image: img, Seq: captures, CapturedAt: time.Now()}

		// Deciding
		fp := l.det.Fingerprint(f)
		if !l.det.Changed(lastFP, fp) {
			// Skipping
			session.NoChangeStreak++
			l.logger.Debug("no change detected", "streak", session.NoChangeStreak)
			if l.oracle.ShouldStop(session.NoChangeStreak) {
				l.logger.Info("end of book detected",
					"pages", len(session.Records),
					"no_change_streak", session.NoChangeStreak)
				break
			}
			continue
		}

		// Recognizing
		rec := PageRecord{Seq: len(session.Records) + 1, Fingerprint: fp}
		text, err := l.engine.Recognize(ctx, f.Image)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			// A single bad page never aborts the run.
			l.logger.Warn("recognition failed", "page", rec.Seq, "error", err)
			rec.LowConfidence = true
		} else {
			rec.Text = text
		}

		if l.arch != nil {
			path, err := l.arch.SavePage(rec.Seq, f.Image)
			if err != nil {
				l.logger.Warn("failed to archive page image", "page", rec.Seq, "error", err)
			} else {
				rec.ImagePath = path
			}
		}

		if err := session.Append(rec); err != nil {
			session.Err = err
			break
		}
		lastFP = &fp
		l.logger.Info("page captured", "page", rec.Seq, "low_confidence", rec.LowConfidence)
	}

	l.logger.Info("capture run finished",
		"run_id", session.ID,
		"pages", len(session.Records),
		"low_confidence", session.LowConfidenceCount(),
		"duration", time.Since(session.StartedAt).Round(time.Millisecond),
		"fatal", session.Err != nil)
	return session
}

// withRetry runs fn with the configured bounded backoff. Errors that
// outlive the attempt budget are wrapped in ErrRetriesExhausted;
// context cancellation is passed through untouched so the caller can
// tell a user stop from a genuine failure.
func (l *Loop) withRetry(ctx context.Context, op string, fn func() error) error {
	err := retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(l.cfg.MaxRetries),
		retry.Delay(l.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			l.logger.Warn("transient failure, retrying",
				"op", op, "attempt", attempt+1, "error", err)
		}),
	)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrRetriesExhausted, op, l.cfg.MaxRetries, err)
}
