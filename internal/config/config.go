// Package config loads and watches the kindle2md configuration.
//
// Precedence, lowest to highest: built-in defaults, config file
// (./config.yaml or ~/.kindle2md/config.yaml), environment variables
// with the KINDLE2MD_ prefix (KINDLE2MD_OCR_LANGUAGE overrides
// ocr.language), command-line flags set by the caller.
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/TakashiThotec/kindle2markdown/internal/automation"
)

// Config is the full configuration surface.
type Config struct {
	Capture CaptureConfig `mapstructure:"capture"`
	OCR     OCRConfig     `mapstructure:"ocr"`
	Output  OutputConfig  `mapstructure:"output"`
}

// CaptureConfig tunes the page-turn / screenshot loop.
type CaptureConfig struct {
	// Region is the screen rectangle to capture.
	Region automation.Region `mapstructure:"region"`

	// PageKey is the page-forward key name passed to the key-send
	// command.
	PageKey string `mapstructure:"page_key"`

	// SettleDelay is the wait after each page turn for the reader to
	// finish rendering.
	SettleDelay time.Duration `mapstructure:"settle_delay"`

	// ChangeThreshold is the maximum fingerprint Hamming distance
	// still treated as "the same page".
	ChangeThreshold int `mapstructure:"change_threshold"`

	// MaxNoChange is the consecutive no-change streak that ends the
	// run.
	MaxNoChange int `mapstructure:"max_no_change"`

	// MaxRetries bounds retries of transient capture/advance failures.
	MaxRetries uint `mapstructure:"max_retries"`

	// RetryDelay is the initial backoff delay between retries.
	RetryDelay time.Duration `mapstructure:"retry_delay"`

	// MaxPages caps the pages captured in one run. Zero disables the
	// cap.
	MaxPages int `mapstructure:"max_pages"`

	// CaptureCmd is the screenshot command template ({output} is
	// replaced with the target PNG path).
	CaptureCmd string `mapstructure:"capture_cmd"`

	// KeySendCmd is the key-send command template ({key} is replaced
	// with PageKey).
	KeySendCmd string `mapstructure:"keysend_cmd"`
}

// OCRConfig tunes text recognition.
type OCRConfig struct {
	// Language is the Tesseract language spec, e.g. "jpn+jpn_vert+eng".
	Language string `mapstructure:"language"`

	// PageSegMode is the Tesseract page segmentation mode.
	PageSegMode int `mapstructure:"psm"`
}

// OutputConfig controls document rendering and image retention.
type OutputConfig struct {
	// SaveFolder is where per-run directories are created.
	SaveFolder string `mapstructure:"save_folder"`

	// PageBreak selects the page-break markup: "heading" or "rule".
	PageBreak string `mapstructure:"page_break"`

	// KeepImages retains the per-page screenshots after rendering.
	KeepImages bool `mapstructure:"keep_images"`

	// Summary appends the capture summary to the document footer.
	Summary bool `mapstructure:"summary"`
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if err := c.Capture.Region.Validate(); err != nil {
		return fmt.Errorf("capture.region: %w", err)
	}
	if c.Capture.PageKey == "" {
		return fmt.Errorf("capture.page_key must not be empty")
	}
	if c.Capture.MaxNoChange < 1 {
		return fmt.Errorf("capture.max_no_change must be at least 1")
	}
	if c.Capture.ChangeThreshold < 0 {
		return fmt.Errorf("capture.change_threshold must not be negative")
	}
	if pb := c.Output.PageBreak; pb != "heading" && pb != "rule" {
		return fmt.Errorf("output.page_break must be \"heading\" or \"rule\", got %q", pb)
	}
	return nil
}

// Manager loads the configuration and can watch the file for changes.
type Manager struct {
	mu  sync.RWMutex
	v   *viper.Viper
	cfg *Config
}

// NewManager loads configuration from defaults, the given (or
// discovered) config file and the environment.
func NewManager(cfgFile string) (*Manager, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("KINDLE2MD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.kindle2md")
	}

	// The config file is optional; defaults plus env are enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	m := &Manager{v: v}
	cfg, err := m.load()
	if err != nil {
		return nil, err
	}
	m.cfg = cfg
	return m, nil
}

func (m *Manager) load() (*Config, error) {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Config returns the current configuration snapshot.
func (m *Manager) Config() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Set overrides a key (flag binding) before the pipeline starts.
func (m *Manager) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.v.Set(key, value)
	cfg, err := m.load()
	if err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

// Watch reloads the config file on change and invokes fn with each new
// valid snapshot. Invalid edits keep the previous snapshot.
func (m *Manager) Watch(fn func(*Config)) {
	m.v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := m.load()
		if err != nil {
			return
		}
		m.mu.Lock()
		m.cfg = cfg
		m.mu.Unlock()
		if fn != nil {
			fn(cfg)
		}
	})
	m.v.WatchConfig()
}
