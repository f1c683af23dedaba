package platform

import (
	"fmt"
	"sync"

	"github.com/pd2trade/pd2sync/internal/d2gl"
	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// staticHandle stands in for the game window on the static backend.
const staticHandle Handle = 1

// Static is the fallback backend for hosts without a queryable window
// system. Geometry comes from d2gl.json; the game window is always
// considered foreground and cursor or input queries are unsupported.
type Static struct {
	installDir string

	once sync.Once
	rect event.Rect
	err  error
}

// NewStatic returns a static backend reading d2gl.json from installDir.
func NewStatic(installDir string) *Static {
	return &Static{installDir: installDir}
}

func (s *Static) load() (event.Rect, error) {
	s.once.Do(func() {
		if s.installDir == "" {
			s.err = fmt.Errorf("%w: no install directory for d2gl.json", d2gl.ErrNotFound)
			return
		}
		s.rect, s.err = d2gl.Load(s.installDir)
	})
	return s.rect, s.err
}

// Name implements Backend.
func (s *Static) Name() string { return "static" }

// ForegroundWindow implements Backend. The game window is always reported.
func (s *Static) ForegroundWindow() (Window, error) {
	return Window{Handle: staticHandle}, nil
}

// FindWindow implements Backend.
func (s *Static) FindWindow(string) (Handle, error) {
	return staticHandle, nil
}

// WindowRect implements Backend.
func (s *Static) WindowRect(Handle) (event.Rect, error) {
	return s.load()
}

// WindowVisible implements Backend.
func (s *Static) WindowVisible(Handle) (bool, error) {
	return true, nil
}

// WorkArea implements Backend.
func (s *Static) WorkArea() (event.Rect, error) {
	return s.load()
}

// CursorPosition implements Backend.
func (s *Static) CursorPosition() (Point, error) {
	return Point{}, ErrUnsupported
}

// SetInputTransparent implements Backend.
func (s *Static) SetInputTransparent(Handle, bool) error {
	return ErrUnsupported
}

// Diagnose reports a missing or unreadable d2gl.json.
func (s *Static) Diagnose() []string {
	if _, err := s.load(); err != nil {
		return []string{fmt.Sprintf("%v. Overlay positioning may be incorrect.", err)}
	}
	return nil
}
