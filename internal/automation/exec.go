package automation

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// ExecFrameSource captures the screen by running an external
// screenshot command (screencapture on macOS, ImageMagick's import on
// X11, and so on) and cropping the written image to the configured
// region.
//
// The command is split on whitespace and every occurrence of the
// {output} placeholder is replaced with a temporary PNG path the
// command must write to.
type ExecFrameSource struct {
	// Command is the screenshot command template, e.g.
	// "screencapture -x {output}".
	Command string

	// Region is the screen rectangle cropped out of the capture.
	Region Region

	Logger *slog.Logger
}

// Capture runs the screenshot command and returns the cropped region.
func (s *ExecFrameSource) Capture(ctx context.Context) (image.Image, error) {
	if strings.TrimSpace(s.Command) == "" {
		return nil, &CaptureError{Err: fmt.Errorf("no capture command configured")}
	}

	out := filepath.Join(os.TempDir(), fmt.Sprintf("kindle2md-frame-%d.png", time.Now().UnixNano()))
	defer os.Remove(out)

	args := splitCommand(strings.ReplaceAll(s.Command, "{output}", out))
	if len(args) == 0 {
		return nil, &CaptureError{Err: fmt.Errorf("empty capture command")}
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, &CaptureError{Err: fmt.Errorf("%s: %v: %s", args[0], err, strings.TrimSpace(string(output)))}
	}

	img, err := imaging.Open(out)
	if err != nil {
		return nil, &CaptureError{Err: fmt.Errorf("decoding capture output: %w", err)}
	}

	cropped, err := s.Region.CropTo(img)
	if err != nil {
		return nil, &CaptureError{Err: err}
	}

	if s.Logger != nil {
		s.Logger.Debug("captured frame",
			"width", s.Region.Width,
			"height", s.Region.Height)
	}
	return cropped, nil
}

// ExecPageTurner advances the reader by running an external key-send
// command (xdotool, osascript, ...) and then blocking for the settle
// delay so the reader finishes rendering before the next capture.
//
// The command is split on whitespace and every occurrence of the {key}
// placeholder is replaced with the configured page-turn key.
type ExecPageTurner struct {
	// Command is the key-send command template, e.g. "xdotool key {key}".
	Command string

	// Key is the page-forward key name understood by the command.
	Key string

	// SettleDelay is how long to wait after the keystroke for the
	// reader's rendering to complete.
	SettleDelay time.Duration

	Logger *slog.Logger
}

// Advance sends the page-turn keystroke and waits for rendering to
// settle. The settle wait is context-aware so cancellation does not
// hang on the delay.
func (t *ExecPageTurner) Advance(ctx context.Context) error {
	if strings.TrimSpace(t.Command) == "" {
		return &AutomationError{Err: fmt.Errorf("no key-send command configured")}
	}

	args := splitCommand(strings.ReplaceAll(t.Command, "{key}", t.Key))
	if len(args) == 0 {
		return &AutomationError{Err: fmt.Errorf("empty key-send command")}
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return &AutomationError{Err: fmt.Errorf("%s: %v: %s", args[0], err, strings.TrimSpace(string(output)))}
	}

	if t.Logger != nil {
		t.Logger.Debug("page turned", "key", t.Key, "settle", t.SettleDelay)
	}

	if t.SettleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(t.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// splitCommand splits a command template into argv, honoring single
// and double quotes so commands like osascript scripts survive intact.
func splitCommand(s string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inArg   bool
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		args = append(args, current.String())
	}
	return args
}
