// Package platform queries the host window system for the engine.
//
// A Backend answers foreground, geometry, cursor and input-transparency
// questions. New selects the variant for the running OS once at
// initialization: Win32 on Windows, X11 on Linux with a reachable display,
// and a static d2gl.json-based fallback everywhere else.
package platform

import (
	"errors"
	"log/slog"

	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// Sentinel errors.
var (
	// ErrWindowNotFound is returned when no window matches a title.
	ErrWindowNotFound = errors.New("window not found")

	// ErrUnsupported is returned by backends that cannot answer a query.
	ErrUnsupported = errors.New("operation not supported by platform backend")
)

// Handle is an opaque native window handle (HWND or X11 window id).
type Handle uintptr

// Point is an absolute screen position.
type Point struct {
	X int
	Y int
}

// Window describes the foreground window.
type Window struct {
	Handle Handle
	PID    int
	Title  string
}

// Backend is the platform query surface the engine loops are written against.
type Backend interface {
	// Name identifies the variant, e.g. "windows", "x11" or "static".
	Name() string

	// ForegroundWindow returns the window that currently has input focus.
	ForegroundWindow() (Window, error)

	// FindWindow returns the first top-level window whose title matches.
	// Returns ErrWindowNotFound when there is none.
	FindWindow(title string) (Handle, error)

	// WindowRect returns the absolute outer rectangle of a window.
	WindowRect(h Handle) (event.Rect, error)

	// WindowVisible reports whether a window is mapped and visible.
	WindowVisible(h Handle) (bool, error)

	// WorkArea returns the primary display area excluding taskbars.
	WorkArea() (event.Rect, error)

	// CursorPosition returns the absolute pointer position.
	CursorPosition() (Point, error)

	// SetInputTransparent makes a window pass pointer input through
	// (true) or receive it (false).
	SetInputTransparent(h Handle, transparent bool) error
}

// ForegroundNotifier is implemented by backends with a native
// foreground-change hook. notify may be called from any goroutine and must
// not block. The returned release function uninstalls the hook.
type ForegroundNotifier interface {
	WatchForeground(notify func()) (release func() error, err error)
}

// Diagnoser is implemented by backends that detected setup problems the
// user should know about.
type Diagnoser interface {
	Diagnose() []string
}

// Options configures backend selection.
type Options struct {
	// InstallDir is the game install directory. The static backend reads
	// d2gl.json from here.
	InstallDir string

	// Logger receives backend diagnostics. If nil, logging is disabled.
	Logger *slog.Logger
}

// New returns the backend for the running platform.
// If the native window system cannot be reached, the static backend is
// returned instead.
func New(opts Options) Backend {
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}
	b, err := newNative(opts, logger)
	if err != nil {
		logger.Debug("native backend unavailable, using static geometry", "error", err)
		return NewStatic(opts.InstallDir)
	}
	return b
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
