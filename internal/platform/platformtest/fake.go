// Package platformtest provides a scriptable platform.Backend for tests.
package platformtest

import (
	"fmt"
	"sync"

	"github.com/pd2trade/pd2sync/internal/platform"
	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// Toggle records one SetInputTransparent call.
type Toggle struct {
	Handle      platform.Handle
	Transparent bool
}

// Backend is an in-memory platform.Backend. The zero value has no windows
// and a zero cursor; use the setters to script it. It is safe for
// concurrent use.
type Backend struct {
	mu sync.Mutex

	windows    map[string]platform.Handle
	rects      map[platform.Handle]event.Rect
	hidden     map[platform.Handle]bool
	foreground platform.Window
	fgErr      error
	workArea   *event.Rect
	cursor     platform.Point
	cursorErr  error
	toggleErr  map[platform.Handle]error
	toggles    []Toggle

	// HookErr, when set, makes WatchForeground fail.
	HookErr error
	notify  func()
	hooked  bool
}

var _ platform.Backend = (*Backend)(nil)
var _ platform.ForegroundNotifier = (*Backend)(nil)

// Name implements platform.Backend.
func (b *Backend) Name() string { return "fake" }

// AddWindow registers a window with the given title and rect.
func (b *Backend) AddWindow(h platform.Handle, title string, rect event.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	b.windows[title] = h
	b.rects[h] = rect
}

// RemoveWindow unregisters a window by title.
func (b *Backend) RemoveWindow(title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h, ok := b.windows[title]; ok {
		delete(b.windows, title)
		delete(b.rects, h)
	}
}

// MoveWindow changes the rect of a registered window.
func (b *Backend) MoveWindow(h platform.Handle, rect event.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	b.rects[h] = rect
}

// SetHidden marks a window invisible.
func (b *Backend) SetHidden(h platform.Handle, hidden bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.init()
	b.hidden[h] = hidden
}

func (b *Backend) init() {
	if b.windows == nil {
		b.windows = make(map[string]platform.Handle)
		b.rects = make(map[platform.Handle]event.Rect)
		b.hidden = make(map[platform.Handle]bool)
	}
}

// SetForeground sets the window reported by ForegroundWindow.
func (b *Backend) SetForeground(w platform.Window) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.foreground = w
	b.fgErr = nil
}

// SetForegroundError makes ForegroundWindow fail.
func (b *Backend) SetForegroundError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fgErr = err
}

// SetWorkArea sets the work area; nil makes WorkArea fail.
func (b *Backend) SetWorkArea(r *event.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.workArea = r
}

// SetCursor sets the pointer position.
func (b *Backend) SetCursor(p platform.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = p
	b.cursorErr = nil
}

// SetCursorError makes CursorPosition fail.
func (b *Backend) SetCursorError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursorErr = err
}

// SetToggleError makes SetInputTransparent fail for a handle; nil clears it.
func (b *Backend) SetToggleError(h platform.Handle, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.toggleErr == nil {
		b.toggleErr = make(map[platform.Handle]error)
	}
	b.toggleErr[h] = err
}

// Toggles returns a copy of all recorded SetInputTransparent calls,
// including failed ones.
func (b *Backend) Toggles() []Toggle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Toggle(nil), b.toggles...)
}

// Hooked reports whether a foreground hook is installed.
func (b *Backend) Hooked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hooked
}

// FireForeground invokes the installed foreground hook, if any.
func (b *Backend) FireForeground() {
	b.mu.Lock()
	notify := b.notify
	b.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// ForegroundWindow implements platform.Backend.
func (b *Backend) ForegroundWindow() (platform.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fgErr != nil {
		return platform.Window{}, b.fgErr
	}
	return b.foreground, nil
}

// FindWindow implements platform.Backend.
func (b *Backend) FindWindow(title string) (platform.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if h, ok := b.windows[title]; ok {
		return h, nil
	}
	return 0, fmt.Errorf("%w: %q", platform.ErrWindowNotFound, title)
}

// WindowRect implements platform.Backend.
func (b *Backend) WindowRect(h platform.Handle) (event.Rect, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rects[h]
	if !ok {
		return event.Rect{}, fmt.Errorf("%w: handle %d", platform.ErrWindowNotFound, h)
	}
	return r, nil
}

// WindowVisible implements platform.Backend.
func (b *Backend) WindowVisible(h platform.Handle) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.rects[h]; !ok {
		return false, fmt.Errorf("%w: handle %d", platform.ErrWindowNotFound, h)
	}
	return !b.hidden[h], nil
}

// WorkArea implements platform.Backend.
func (b *Backend) WorkArea() (event.Rect, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.workArea == nil {
		return event.Rect{}, platform.ErrUnsupported
	}
	return *b.workArea, nil
}

// CursorPosition implements platform.Backend.
func (b *Backend) CursorPosition() (platform.Point, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor, b.cursorErr
}

// SetInputTransparent implements platform.Backend.
func (b *Backend) SetInputTransparent(h platform.Handle, transparent bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.toggles = append(b.toggles, Toggle{Handle: h, Transparent: transparent})
	return b.toggleErr[h]
}

// WatchForeground implements platform.ForegroundNotifier.
func (b *Backend) WatchForeground(notify func()) (func() error, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.HookErr != nil {
		return nil, b.HookErr
	}
	b.notify = notify
	b.hooked = true
	return func() error {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.notify = nil
		b.hooked = false
		return nil
	}, nil
}

// Polling hides the ForegroundNotifier capability of a backend, forcing
// consumers onto their polling path.
type Polling struct {
	platform.Backend
}
