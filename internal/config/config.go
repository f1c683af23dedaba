// Package config loads the pd2sync YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// Defaults.
const (
	DefaultTrackedWindowTitle   = "Diablo II"
	DefaultOverlayTitlePrefix   = "PD2Trade:"
	DefaultFocusPollInterval    = 100 * time.Millisecond
	DefaultBoundsInterval       = 50 * time.Millisecond
	DefaultClickThroughInterval = 50 * time.Millisecond
	DefaultChatDebounce         = 100 * time.Millisecond
)

// DefaultBounds is the rect used when neither the game window nor the work
// area can be queried.
var DefaultBounds = event.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

// Config is the top-level configuration.
type Config struct {
	// TrackedWindowTitle is the title of the game window to follow.
	TrackedWindowTitle string `yaml:"tracked_window_title"`

	// OverlayTitlePrefix prefixes every overlay window title. Overlay
	// windows are looked up as prefix + id, and a foreground window with
	// this prefix counts as focused.
	OverlayTitlePrefix string `yaml:"overlay_title_prefix"`

	// InstallDir overrides install directory detection.
	InstallDir string `yaml:"install_dir"`

	FocusPollInterval    time.Duration `yaml:"focus_poll_interval"`
	BoundsInterval       time.Duration `yaml:"bounds_interval"`
	ClickThroughInterval time.Duration `yaml:"click_through_interval"`
	ChatDebounce         time.Duration `yaml:"chat_debounce"`

	// DefaultBounds is the fallback overlay rect.
	DefaultBounds event.Rect `yaml:"default_bounds"`

	// Popups maps an overlay window id to interactive regions given as
	// [left, top, right, bottom] relative to the window origin.
	Popups map[string][][4]float64 `yaml:"popups"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TrackedWindowTitle:   DefaultTrackedWindowTitle,
		OverlayTitlePrefix:   DefaultOverlayTitlePrefix,
		FocusPollInterval:    DefaultFocusPollInterval,
		BoundsInterval:       DefaultBoundsInterval,
		ClickThroughInterval: DefaultClickThroughInterval,
		ChatDebounce:         DefaultChatDebounce,
		DefaultBounds:        DefaultBounds,
	}
}

// DefaultPath returns the default config file location,
// $XDG_CONFIG_HOME/pd2sync/config.yaml or its OS equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "pd2sync", "config.yaml"), nil
}

// Load reads the configuration at path. Fields absent from the file keep
// their defaults. A missing file yields the defaults when path is the
// default location; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks intervals and the default bounds.
func (c *Config) Validate() error {
	if c.TrackedWindowTitle == "" {
		return errors.New("tracked_window_title must not be empty")
	}
	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"focus_poll_interval", c.FocusPollInterval},
		{"bounds_interval", c.BoundsInterval},
		{"click_through_interval", c.ClickThroughInterval},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", iv.name, iv.d)
		}
	}
	if c.ChatDebounce < 0 {
		return fmt.Errorf("chat_debounce must not be negative, got %s", c.ChatDebounce)
	}
	if c.DefaultBounds.Width <= 0 || c.DefaultBounds.Height <= 0 {
		return fmt.Errorf("default_bounds must have a positive size, got %dx%d",
			c.DefaultBounds.Width, c.DefaultBounds.Height)
	}
	for id, rects := range c.Popups {
		for i, r := range rects {
			if r[2] < r[0] || r[3] < r[1] {
				return fmt.Errorf("popups[%s][%d]: right/bottom must not be less than left/top", id, i)
			}
		}
	}
	return nil
}
