package pd2sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pd2trade/pd2sync/internal/logfinder"
	"github.com/pd2trade/pd2sync/internal/platform"
	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// Engine owns the sync loops and the event bus for one overlay process.
//
// Subscribe before Start to observe the first focus and bounds events.
type Engine struct {
	cfg     *engineConfig
	backend Backend
	bus     *Bus
	logger  *slog.Logger

	focus   *FocusMonitor
	bounds  *BoundsTracker
	arbiter *ClickThroughArbiter
	chat    *ChatWatcher

	mu      sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates an engine. It does not start any goroutines.
func New(opts ...Option) *Engine {
	cfg := applyOptions(opts)

	backend := cfg.backend
	if backend == nil {
		backend = platform.New(platform.Options{
			InstallDir: detectInstallDir(cfg.installDir),
			Logger:     cfg.logger,
		})
	}
	overlays := cfg.overlays
	if overlays == nil {
		overlays = nativeOverlays{backend: backend, prefix: cfg.overlayPrefix}
	}

	e := &Engine{
		cfg:     cfg,
		backend: backend,
		bus:     NewBus(cfg.logger),
		logger:  cfg.logger,
	}
	e.focus = newFocusMonitor(backend, cfg, e.bus.Publish)
	e.bounds = newBoundsTracker(backend, cfg, e.focus.IsTrackedWindowFocused, e.bus.Publish)
	e.arbiter = newClickThroughArbiter(backend, overlays, cfg)
	e.chat = newChatWatcher(cfg, e.bus.Publish)
	return e
}

// detectInstallDir returns the install directory, or "" when none is found.
func detectInstallDir(override string) string {
	dir, err := logfinder.FindInstallDir(override)
	if err != nil {
		return override
	}
	return dir
}

// Start reports backend setup problems as error events, then starts focus
// monitoring, bounds tracking and click-through arbitration. Every focus
// change triggers an immediate bounds sample.
//
// Returns an error wrapping ErrWatch if the focus hook cannot be installed.
// Calling Start again is a no-op.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.started {
		return nil
	}

	if d, ok := e.backend.(platform.Diagnoser); ok {
		for _, msg := range d.Diagnose() {
			e.logger.Warn("platform setup problem", "backend", e.backend.Name(), "problem", msg)
			e.bus.Publish(event.NewError(msg))
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	if err := e.focus.Start(ctx, func(bool) { e.bounds.Sample() }); err != nil {
		cancel()
		return err
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.bounds.Run(ctx)
	}()
	e.arbiter.Start(ctx)

	e.started = true
	e.cancel = cancel
	e.logger.Debug("engine started", "backend", e.backend.Name())
	return nil
}

// Close stops every loop and watch and closes all subscriber channels.
// Safe to call multiple times.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	cancel := e.cancel
	e.mu.Unlock()

	focusErr := e.focus.Stop()
	chatErr := e.chat.Stop()
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
	e.bus.Close()

	if focusErr != nil {
		return fmt.Errorf("stopping focus monitor: %w", focusErr)
	}
	if chatErr != nil {
		return fmt.Errorf("stopping chat watch: %w", chatErr)
	}
	return nil
}

// Subscribe registers a subscriber on the engine's event bus.
func (e *Engine) Subscribe(buffer int, opts ...SubscribeOption) (<-chan Event, func()) {
	return e.bus.Subscribe(buffer, opts...)
}

// Bus returns the engine's event bus.
func (e *Engine) Bus() *Bus {
	return e.bus
}

// BackendName identifies the window system backend in use.
func (e *Engine) BackendName() string {
	return e.backend.Name()
}

// ResolveInstallDir returns the install directory, preferring override
// when it exists. Returns an error wrapping ErrResolution if none is found.
func (e *Engine) ResolveInstallDir(override string) (string, error) {
	if override == "" {
		override = e.cfg.installDir
	}
	dir, err := logfinder.FindInstallDir(override)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolution, err)
	}
	return dir, nil
}

// AutoDetectInstallDir is ResolveInstallDir without an override.
func (e *Engine) AutoDetectInstallDir() (string, error) {
	dir, err := logfinder.FindInstallDir("")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolution, err)
	}
	return dir, nil
}

// ResolveChatLogPath resolves the install directory and returns the chat
// log path beneath it, creating the log files when absent.
func (e *Engine) ResolveChatLogPath(override string) (string, error) {
	dir, err := e.ResolveInstallDir(override)
	if err != nil {
		return "", err
	}
	path, err := logfinder.ChatLogPath(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrResolution, err)
	}
	return path, nil
}

// StartChatWatch resolves the chat log beneath installDir (or the detected
// install directory when empty) and starts tailing it. It returns the
// watched path.
func (e *Engine) StartChatWatch(installDir string) (string, error) {
	path, err := e.ResolveChatLogPath(installDir)
	if err != nil {
		return "", err
	}
	if err := e.chat.Start(path); err != nil {
		return "", err
	}
	return path, nil
}

// StopChatWatch stops tailing the chat log. Safe to call when not watching.
func (e *Engine) StopChatWatch() error {
	return e.chat.Stop()
}

// ChatCursor returns the chat log byte offset consumed so far.
func (e *Engine) ChatCursor() int64 {
	return e.chat.Cursor()
}

// RegisterPopupRects replaces the interactive regions of overlay window id.
func (e *Engine) RegisterPopupRects(id string, rects []PopupRect) {
	e.arbiter.RegisterPopupRects(id, rects)
}

// Bounds returns the current overlay bounds, falling back to the default
// rect when nothing can be queried.
func (e *Engine) Bounds() Rect {
	return e.bounds.BoundsOrDefault()
}

// Focused reports whether the tracked window currently has focus.
func (e *Engine) Focused() bool {
	return e.focus.IsTrackedWindowFocused()
}
