// Package markdown renders the ordered page records of a capture run
// into a single Markdown document.
//
// Rendering is deliberately dumb: it orders, normalizes whitespace and
// marks uncertain pages, but never tries to fix OCR mistakes. The
// output is a pure function of the input records, so rendering the
// same sequence twice yields byte-identical documents.
package markdown

import (
	"fmt"
	"strings"

	"github.com/TakashiThotec/kindle2markdown/internal/capture"
)

// BreakStyle selects the page-break markup between page blocks.
type BreakStyle string

const (
	// BreakHeading emits a "## Page N" heading before each page.
	BreakHeading BreakStyle = "heading"

	// BreakRule separates pages with a horizontal rule.
	BreakRule BreakStyle = "rule"
)

// lowConfidenceNote is the visible annotation on pages whose OCR
// failed, so a reviewer can locate them without re-running the
// pipeline.
const lowConfidenceNote = "> **Low-confidence page:** text recognition failed or produced no reliable output."

// Assembler renders page records into a Markdown document.
type Assembler struct {
	// Style selects the page-break markup. Unknown values fall back to
	// BreakHeading.
	Style BreakStyle

	// IncludeSummary appends a one-line capture summary to the
	// document footer.
	IncludeSummary bool
}

// Summary is the reviewer-facing accounting of a render.
type Summary struct {
	Pages         int
	LowConfidence int
}

// Summarize counts the pages and low-confidence pages in a record
// sequence.
func Summarize(records []capture.PageRecord) Summary {
	s := Summary{Pages: len(records)}
	for _, r := range records {
		if r.LowConfidence {
			s.LowConfidence++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d pages captured, %d low-confidence", s.Pages, s.LowConfidence)
}

// Render produces the Markdown document for records, which must
// already be in sequence order. Every record yields exactly one page
// block; low-confidence records get a visible annotation in place of
// (or ahead of) their text.
func (a Assembler) Render(records []capture.PageRecord) string {
	var b strings.Builder

	for i, rec := range records {
		switch a.Style {
		case BreakRule:
			if i > 0 {
				b.WriteString("---\n\n")
			}
		default:
			b.WriteString(fmt.Sprintf("## Page %d\n\n", rec.Seq))
		}

		if rec.LowConfidence {
			b.WriteString(lowConfidenceNote)
			b.WriteString("\n\n")
		}

		if text := Normalize(rec.Text); text != "" {
			b.WriteString(text)
			b.WriteString("\n\n")
		}
	}

	if a.IncludeSummary && len(records) > 0 {
		b.WriteString(fmt.Sprintf("---\n\n_%s._\n", Summarize(records)))
	}

	return b.String()
}

// Normalize trims trailing whitespace per line, collapses runs of
// blank lines to a single blank line and strips leading/trailing blank
// lines. It performs no semantic cleanup of the OCR text.
func Normalize(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var out []string
	blankRun := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blankRun++
			continue
		}
		if blankRun > 0 && len(out) > 0 {
			out = append(out, "")
		}
		blankRun = 0
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
