package pd2sync

import (
	"log/slog"
	"time"

	"github.com/pd2trade/pd2sync/internal/config"
)

// Option configures an Engine using the functional options pattern.
type Option func(*engineConfig)

// engineConfig holds internal configuration for the engine.
type engineConfig struct {
	backend              Backend
	overlays             OverlayWindows
	installDir           string
	trackedTitle         string
	overlayPrefix        string
	focusPollInterval    time.Duration
	boundsInterval       time.Duration
	clickThroughInterval time.Duration
	chatDebounce         time.Duration
	defaultBounds        Rect
	includeRawLine       bool
	logger               *slog.Logger
}

// defaultEngineConfig returns an engineConfig with the built-in defaults.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		trackedTitle:         config.DefaultTrackedWindowTitle,
		overlayPrefix:        config.DefaultOverlayTitlePrefix,
		focusPollInterval:    config.DefaultFocusPollInterval,
		boundsInterval:       config.DefaultBoundsInterval,
		clickThroughInterval: config.DefaultClickThroughInterval,
		chatDebounce:         config.DefaultChatDebounce,
		defaultBounds:        config.DefaultBounds,
	}
}

// applyOptions applies functional options to an engineConfig.
func applyOptions(opts []Option) *engineConfig {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	// Non-positive intervals fall back to the defaults; tickers reject them.
	if cfg.focusPollInterval <= 0 {
		cfg.focusPollInterval = config.DefaultFocusPollInterval
	}
	if cfg.boundsInterval <= 0 {
		cfg.boundsInterval = config.DefaultBoundsInterval
	}
	if cfg.clickThroughInterval <= 0 {
		cfg.clickThroughInterval = config.DefaultClickThroughInterval
	}
	if cfg.chatDebounce < 0 {
		cfg.chatDebounce = config.DefaultChatDebounce
	}
	if cfg.trackedTitle == "" {
		cfg.trackedTitle = config.DefaultTrackedWindowTitle
	}
	return cfg
}

// WithBackend sets the window system backend.
// If not set, the backend for the running platform is detected.
func WithBackend(b Backend) Option {
	return func(c *engineConfig) {
		c.backend = b
	}
}

// WithOverlayWindows sets how overlay windows are inspected and toggled.
// If not set, overlay windows are looked up on the backend by the title
// overlay prefix + window id.
func WithOverlayWindows(w OverlayWindows) Option {
	return func(c *engineConfig) {
		c.overlays = w
	}
}

// WithInstallDir sets the game install directory.
// If not set, auto-detects it. Can also be set via PD2SYNC_INSTALL_DIR.
func WithInstallDir(dir string) Option {
	return func(c *engineConfig) {
		c.installDir = dir
	}
}

// WithTrackedWindowTitle sets the title of the game window.
// Default: "Diablo II".
func WithTrackedWindowTitle(title string) Option {
	return func(c *engineConfig) {
		c.trackedTitle = title
	}
}

// WithOverlayTitlePrefix sets the title prefix of overlay windows.
// Default: "PD2Trade:".
func WithOverlayTitlePrefix(prefix string) Option {
	return func(c *engineConfig) {
		c.overlayPrefix = prefix
	}
}

// WithFocusPollInterval sets the focus polling interval used when the
// backend has no foreground hook. Default: 100ms. Non-positive values
// use the default.
func WithFocusPollInterval(d time.Duration) Option {
	return func(c *engineConfig) {
		c.focusPollInterval = d
	}
}

// WithBoundsInterval sets the bounds tracking interval. Default: 50ms.
// Non-positive values use the default.
func WithBoundsInterval(d time.Duration) Option {
	return func(c *engineConfig) {
		c.boundsInterval = d
	}
}

// WithClickThroughInterval sets the click-through arbitration interval.
// Default: 50ms. Non-positive values use the default.
func WithClickThroughInterval(d time.Duration) Option {
	return func(c *engineConfig) {
		c.clickThroughInterval = d
	}
}

// WithChatDebounce sets how long chat log writes settle before the log is
// read. Zero reads on every write. Default: 100ms.
func WithChatDebounce(d time.Duration) Option {
	return func(c *engineConfig) {
		c.chatDebounce = d
	}
}

// WithDefaultBounds sets the rect reported when no bounds can be queried.
// Default: 0,0 1920x1080.
func WithDefaultBounds(r Rect) Option {
	return func(c *engineConfig) {
		c.defaultBounds = r
	}
}

// WithIncludeRawLine includes the original chat line in Event.RawLine.
// Default: false.
func WithIncludeRawLine(include bool) Option {
	return func(c *engineConfig) {
		c.includeRawLine = include
	}
}

// WithLogger sets the slog logger for debug output.
// If nil (default), logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// WithConfig applies a loaded configuration file.
func WithConfig(cfg *config.Config) Option {
	return func(c *engineConfig) {
		if cfg == nil {
			return
		}
		c.trackedTitle = cfg.TrackedWindowTitle
		c.overlayPrefix = cfg.OverlayTitlePrefix
		c.focusPollInterval = cfg.FocusPollInterval
		c.boundsInterval = cfg.BoundsInterval
		c.clickThroughInterval = cfg.ClickThroughInterval
		c.chatDebounce = cfg.ChatDebounce
		c.defaultBounds = cfg.DefaultBounds
		if cfg.InstallDir != "" {
			c.installDir = cfg.InstallDir
		}
	}
}

// SubscribeOption configures a bus subscription.
type SubscribeOption func(*subscribeConfig)

type subscribeConfig struct {
	include []EventType
	exclude []EventType
}

// WithIncludeTypes delivers only the specified types.
// If called multiple times, only the last call takes effect.
func WithIncludeTypes(types ...EventType) SubscribeOption {
	return func(c *subscribeConfig) {
		c.include = types
	}
}

// WithExcludeTypes drops the specified types.
// Exclude takes precedence over include.
// If called multiple times, only the last call takes effect.
func WithExcludeTypes(types ...EventType) SubscribeOption {
	return func(c *subscribeConfig) {
		c.exclude = types
	}
}

// ParseOption configures ParseFile behavior.
type ParseOption func(*parseConfig)

type parseConfig struct {
	filter         *typeFilter
	includeRawLine bool
}

func applyParseOptions(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// WithParseFilter sets both include and exclude type filters for parsing.
// Exclude takes precedence over include.
func WithParseFilter(include, exclude []EventType) ParseOption {
	return func(c *parseConfig) {
		c.filter = newTypeFilter(include, exclude)
	}
}

// WithParseIncludeRawLine includes the original log line in Event.RawLine.
func WithParseIncludeRawLine(include bool) ParseOption {
	return func(c *parseConfig) {
		c.includeRawLine = include
	}
}
