// Package capture drives the page-turn / screenshot / OCR pipeline and
// accumulates the ordered page records that the Markdown assembler
// consumes.
package capture

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TakashiThotec/kindle2markdown/internal/frame"
)

// PageRecord is one accepted (changed) page. Records are immutable
// once appended and their sequence indices form a gapless increasing
// run starting at 1.
type PageRecord struct {
	// Seq is the page's position in capture order.
	Seq int

	// Text is the recognized page text. Empty when recognition failed.
	Text string

	// Fingerprint is the perceptual fingerprint of the source frame.
	Fingerprint frame.Fingerprint

	// LowConfidence marks pages whose OCR failed; the assembler emits
	// a visible annotation so a reviewer can find them.
	LowConfidence bool

	// ImagePath is the archived screenshot, when image retention is on.
	ImagePath string
}

// Session is the state of one capture run. It is owned exclusively by
// the loop while running and handed to the caller at termination; no
// other goroutine touches it.
type Session struct {
	// ID names the run; it doubles as the archive directory name.
	ID string

	// StartedAt is when the loop entered its first iteration.
	StartedAt time.Time

	// Records are the accepted pages in strict capture order.
	Records []PageRecord

	// NoChangeStreak counts consecutive advance attempts that produced
	// no detected change. It resets to zero on every accepted page and
	// is the sole input to the termination oracle.
	NoChangeStreak int

	// Err is non-nil only when the run ended with exhausted automation
	// retries. Records collected before the failure are still valid.
	Err error
}

// NewSession creates a run session. An empty id gets a fresh UUID.
func NewSession(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		ID:        id,
		StartedAt: time.Now(),
	}
}

// Append adds an accepted page, enforcing the record invariants:
// gapless increasing sequence and no consecutive duplicate
// fingerprints. Violations indicate a loop bug, not bad input.
func (s *Session) Append(rec PageRecord) error {
	if want := len(s.Records) + 1; rec.Seq != want {
		return fmt.Errorf("page record sequence gap: got %d, want %d", rec.Seq, want)
	}
	if n := len(s.Records); n > 0 && s.Records[n-1].Fingerprint == rec.Fingerprint {
		return fmt.Errorf("page %d duplicates the fingerprint of page %d", rec.Seq, n)
	}
	s.Records = append(s.Records, rec)
	s.NoChangeStreak = 0
	return nil
}

// LowConfidenceCount returns how many accepted pages carry the
// low-confidence flag.
func (s *Session) LowConfidenceCount() int {
	n := 0
	for _, r := range s.Records {
		if r.LowConfidence {
			n++
		}
	}
	return n
}
