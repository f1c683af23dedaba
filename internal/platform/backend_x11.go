//go:build linux

package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/shape"
	"github.com/jezek/xgb/xproto"

	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// X11 is the Linux backend talking to an X server (or XWayland).
type X11 struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	logger *slog.Logger

	shapeOnce sync.Once
	shapeErr  error

	atomsMu sync.Mutex
	atoms   map[string]xproto.Atom
}

func newNative(_ Options, logger *slog.Logger) (Backend, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connecting to X server: %w", err)
	}
	return &X11{
		conn:   conn,
		screen: xproto.Setup(conn).DefaultScreen(conn),
		logger: logger,
		atoms:  make(map[string]xproto.Atom),
	}, nil
}

// Name implements Backend.
func (x *X11) Name() string { return "x11" }

// Close closes the X connection.
func (x *X11) Close() error {
	x.conn.Close()
	return nil
}

func (x *X11) atom(name string) (xproto.Atom, error) {
	x.atomsMu.Lock()
	defer x.atomsMu.Unlock()
	if a, ok := x.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(x.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("interning %s: %w", name, err)
	}
	x.atoms[name] = reply.Atom
	return reply.Atom, nil
}

func (x *X11) property(w xproto.Window, name string, typ xproto.Atom) (*xproto.GetPropertyReply, error) {
	a, err := x.atom(name)
	if err != nil {
		return nil, err
	}
	reply, err := xproto.GetProperty(x.conn, false, w, a, typ, 0, 1024).Reply()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return reply, nil
}

func (x *X11) cardinals(w xproto.Window, name string, typ xproto.Atom) ([]uint32, error) {
	reply, err := x.property(w, name, typ)
	if err != nil {
		return nil, err
	}
	if reply.Format != 32 {
		return nil, fmt.Errorf("%s: unexpected format %d", name, reply.Format)
	}
	vals := make([]uint32, 0, len(reply.Value)/4)
	for i := 0; i+4 <= len(reply.Value); i += 4 {
		vals = append(vals, xgb.Get32(reply.Value[i:]))
	}
	return vals, nil
}

func (x *X11) title(w xproto.Window) string {
	utf8, err := x.atom("UTF8_STRING")
	if err == nil {
		if reply, err := x.property(w, "_NET_WM_NAME", utf8); err == nil && len(reply.Value) > 0 {
			return string(reply.Value)
		}
	}
	reply, err := xproto.GetProperty(x.conn, false, w, xproto.AtomWmName, xproto.AtomString, 0, 1024).Reply()
	if err != nil {
		return ""
	}
	return string(reply.Value)
}

func (x *X11) activeWindow() (xproto.Window, error) {
	vals, err := x.cardinals(x.screen.Root, "_NET_ACTIVE_WINDOW", xproto.AtomWindow)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 || vals[0] == 0 {
		return 0, fmt.Errorf("%w: no active window", ErrWindowNotFound)
	}
	return xproto.Window(vals[0]), nil
}

// ForegroundWindow implements Backend.
func (x *X11) ForegroundWindow() (Window, error) {
	w, err := x.activeWindow()
	if err != nil {
		return Window{}, err
	}
	win := Window{Handle: Handle(w), Title: x.title(w)}
	if pids, err := x.cardinals(w, "_NET_WM_PID", xproto.AtomCardinal); err == nil && len(pids) > 0 {
		win.PID = int(pids[0])
	}
	return win, nil
}

// FindWindow implements Backend. An exact title match wins over the first
// client whose title contains the given title.
func (x *X11) FindWindow(title string) (Handle, error) {
	clients, err := x.cardinals(x.screen.Root, "_NET_CLIENT_LIST", xproto.AtomWindow)
	if err != nil {
		return 0, err
	}
	var partial xproto.Window
	for _, c := range clients {
		w := xproto.Window(c)
		name := x.title(w)
		if name == title {
			return Handle(w), nil
		}
		if partial == 0 && strings.Contains(name, title) {
			partial = w
		}
	}
	if partial != 0 {
		return Handle(partial), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrWindowNotFound, title)
}

// WindowRect implements Backend. The geometry is translated to root
// coordinates because GetGeometry is relative to the parent frame.
func (x *X11) WindowRect(h Handle) (event.Rect, error) {
	w := xproto.Window(h)
	geom, err := xproto.GetGeometry(x.conn, xproto.Drawable(w)).Reply()
	if err != nil {
		return event.Rect{}, fmt.Errorf("GetGeometry: %w", err)
	}
	pos, err := xproto.TranslateCoordinates(x.conn, w, x.screen.Root, 0, 0).Reply()
	if err != nil {
		return event.Rect{}, fmt.Errorf("TranslateCoordinates: %w", err)
	}
	return event.Rect{
		X:      int(pos.DstX),
		Y:      int(pos.DstY),
		Width:  int(geom.Width),
		Height: int(geom.Height),
	}, nil
}

// WindowVisible implements Backend.
func (x *X11) WindowVisible(h Handle) (bool, error) {
	attrs, err := xproto.GetWindowAttributes(x.conn, xproto.Window(h)).Reply()
	if err != nil {
		return false, fmt.Errorf("GetWindowAttributes: %w", err)
	}
	return attrs.MapState == xproto.MapStateViewable, nil
}

// WorkArea implements Backend. Falls back to the root screen size when the
// window manager does not publish _NET_WORKAREA.
func (x *X11) WorkArea() (event.Rect, error) {
	vals, err := x.cardinals(x.screen.Root, "_NET_WORKAREA", xproto.AtomCardinal)
	if err == nil && len(vals) >= 4 {
		return event.Rect{
			X:      int(int32(vals[0])),
			Y:      int(int32(vals[1])),
			Width:  int(vals[2]),
			Height: int(vals[3]),
		}, nil
	}
	return event.Rect{
		Width:  int(x.screen.WidthInPixels),
		Height: int(x.screen.HeightInPixels),
	}, nil
}

// CursorPosition implements Backend.
func (x *X11) CursorPosition() (Point, error) {
	reply, err := xproto.QueryPointer(x.conn, x.screen.Root).Reply()
	if err != nil {
		return Point{}, fmt.Errorf("QueryPointer: %w", err)
	}
	return Point{X: int(reply.RootX), Y: int(reply.RootY)}, nil
}

// SetInputTransparent replaces the window's input shape: an empty region
// lets every click through, clearing the mask restores the default region.
func (x *X11) SetInputTransparent(h Handle, transparent bool) error {
	x.shapeOnce.Do(func() {
		if err := shape.Init(x.conn); err != nil {
			x.shapeErr = fmt.Errorf("%w: SHAPE extension: %v", ErrUnsupported, err)
		}
	})
	if x.shapeErr != nil {
		return x.shapeErr
	}

	w := xproto.Window(h)
	var err error
	if transparent {
		err = shape.RectanglesChecked(x.conn, shape.SoSet, shape.SkInput,
			xproto.ClipOrderingUnsorted, w, 0, 0, nil).Check()
	} else {
		err = shape.MaskChecked(x.conn, shape.SoSet, shape.SkInput, w, 0, 0, xproto.PixmapNone).Check()
	}
	if err != nil {
		return fmt.Errorf("setting input shape: %w", err)
	}
	return nil
}

// WatchForeground subscribes to property changes on the root window over a
// dedicated connection and calls notify whenever _NET_ACTIVE_WINDOW
// changes.
func (x *X11) WatchForeground(notify func()) (func() error, error) {
	active, err := x.atom("_NET_ACTIVE_WINDOW")
	if err != nil {
		return nil, err
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("opening event connection: %w", err)
	}
	root := xproto.Setup(conn).DefaultScreen(conn).Root
	err = xproto.ChangeWindowAttributesChecked(conn, root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("selecting PropertyChange on root: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			ev, xerr := conn.WaitForEvent()
			if ev == nil && xerr == nil {
				return
			}
			if xerr != nil {
				x.logger.Debug("x11 event error", "error", xerr)
				continue
			}
			if pn, ok := ev.(xproto.PropertyNotifyEvent); ok &&
				pn.Atom == active && pn.State == xproto.PropertyNewValue {
				notify()
			}
		}
	}()

	var once sync.Once
	return func() error {
		once.Do(func() {
			conn.Close()
			<-done
		})
		return nil
	}, nil
}

// Diagnose reports a missing EWMH-compliant window manager.
func (x *X11) Diagnose() []string {
	if _, err := x.cardinals(x.screen.Root, "_NET_CLIENT_LIST", xproto.AtomWindow); err != nil {
		return []string{fmt.Sprintf("window manager does not publish _NET_CLIENT_LIST: %v. Focus tracking may be unavailable.", err)}
	}
	if _, err := x.activeWindow(); err != nil && !errors.Is(err, ErrWindowNotFound) {
		return []string{fmt.Sprintf("window manager does not publish _NET_ACTIVE_WINDOW: %v. Focus tracking may be unavailable.", err)}
	}
	return nil
}
