package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

// Defaults mirror a typical "Kindle for PC at 1080p" setup; everything
// is meant to be overridden per machine via config file or environment.
func setDefaults(v *viper.Viper) {
	v.SetDefault("capture.region.x", 0)
	v.SetDefault("capture.region.y", 0)
	v.SetDefault("capture.region.width", 1920)
	v.SetDefault("capture.region.height", 1080)
	v.SetDefault("capture.page_key", "right")
	v.SetDefault("capture.settle_delay", 1500*time.Millisecond)
	v.SetDefault("capture.change_threshold", 10)
	v.SetDefault("capture.max_no_change", 3)
	v.SetDefault("capture.max_retries", 3)
	v.SetDefault("capture.retry_delay", 500*time.Millisecond)
	v.SetDefault("capture.max_pages", 100)
	v.SetDefault("capture.capture_cmd", defaultCaptureCmd())
	v.SetDefault("capture.keysend_cmd", defaultKeySendCmd())

	v.SetDefault("ocr.language", "jpn+jpn_vert+eng")
	v.SetDefault("ocr.psm", 6)

	v.SetDefault("output.save_folder", defaultSaveFolder())
	v.SetDefault("output.page_break", "heading")
	v.SetDefault("output.keep_images", true)
	v.SetDefault("output.summary", true)
}

func defaultSaveFolder() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "kindle2md"
	}
	return filepath.Join(home, "kindle2md")
}

// defaultCaptureCmd picks a full-screen screenshot command that is
// commonly available on each desktop. {output} is the PNG path the
// command must write.
func defaultCaptureCmd() string {
	switch runtime.GOOS {
	case "darwin":
		return "screencapture -x {output}"
	case "windows":
		return "nircmd savescreenshot {output}"
	default:
		// ImageMagick, X11 only. Wayland users need to configure
		// grim or an equivalent.
		return "import -window root {output}"
	}
}

// defaultKeySendCmd picks a key-injection command per desktop. {key}
// is the configured page-forward key.
func defaultKeySendCmd() string {
	switch runtime.GOOS {
	case "darwin":
		// No stock macOS key-injection CLI; cliclick is the usual
		// homebrew answer but key naming differs, so leave it to the
		// user's config.
		return ""
	case "windows":
		return "nircmd sendkeypress {key}"
	default:
		return "xdotool key {key}"
	}
}
