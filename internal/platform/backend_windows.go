//go:build windows

package platform

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

const (
	_GWL_EXSTYLE       int32 = -20
	_WS_EX_TRANSPARENT int32 = 0x00000020
	_WS_EX_LAYERED     int32 = 0x00080000

	_SPI_GETWORKAREA = 0x0030

	_EVENT_SYSTEM_FOREGROUND = 0x0003
	_WINEVENT_OUTOFCONTEXT   = 0x0000
	_WM_QUIT                 = 0x0012
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procFindWindowW          = user32.NewProc("FindWindowW")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowRect        = user32.NewProc("GetWindowRect")
	procGetCursorPos         = user32.NewProc("GetCursorPos")
	procGetWindowLongW       = user32.NewProc("GetWindowLongW")
	procSetWindowLongW       = user32.NewProc("SetWindowLongW")
	procSystemParametersInfo = user32.NewProc("SystemParametersInfoW")
	procSetWinEventHook      = user32.NewProc("SetWinEventHook")
	procUnhookWinEvent       = user32.NewProc("UnhookWinEvent")
	procGetMessageW          = user32.NewProc("GetMessageW")
	procPostThreadMessageW   = user32.NewProc("PostThreadMessageW")
)

type rect32 struct {
	Left, Top, Right, Bottom int32
}

func (r rect32) toRect() event.Rect {
	return event.Rect{
		X:      int(r.Left),
		Y:      int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}
}

type point32 struct {
	X, Y int32
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point32
	private uint32
}

// Win32 is the Windows backend.
type Win32 struct {
	logger *slog.Logger
}

func newNative(_ Options, logger *slog.Logger) (Backend, error) {
	if err := user32.Load(); err != nil {
		return nil, fmt.Errorf("loading user32: %w", err)
	}
	return &Win32{logger: logger}, nil
}

// Name implements Backend.
func (w *Win32) Name() string { return "windows" }

// ForegroundWindow implements Backend.
func (w *Win32) ForegroundWindow() (Window, error) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return Window{}, fmt.Errorf("%w: no foreground window", ErrWindowNotFound)
	}

	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return Window{}, fmt.Errorf("GetWindowThreadProcessId: %w", err)
	}

	return Window{
		Handle: Handle(hwnd),
		PID:    int(pid),
		Title:  windowText(uintptr(hwnd)),
	}, nil
}

func windowText(hwnd uintptr) string {
	buf := make([]uint16, 256)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}

// FindWindow implements Backend. The title must match exactly.
func (w *Win32) FindWindow(title string) (Handle, error) {
	ptr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, fmt.Errorf("encoding title %q: %w", title, err)
	}
	hwnd, _, _ := procFindWindowW.Call(0, uintptr(unsafe.Pointer(ptr)))
	if hwnd == 0 {
		return 0, fmt.Errorf("%w: %q", ErrWindowNotFound, title)
	}
	return Handle(hwnd), nil
}

// WindowRect implements Backend.
func (w *Win32) WindowRect(h Handle) (event.Rect, error) {
	var r rect32
	ret, _, callErr := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return event.Rect{}, fmt.Errorf("GetWindowRect: %w", callErr)
	}
	return r.toRect(), nil
}

// WindowVisible implements Backend.
func (w *Win32) WindowVisible(h Handle) (bool, error) {
	return windows.IsWindowVisible(windows.HWND(h)), nil
}

// WorkArea implements Backend.
func (w *Win32) WorkArea() (event.Rect, error) {
	var r rect32
	ret, _, callErr := procSystemParametersInfo.Call(_SPI_GETWORKAREA, 0, uintptr(unsafe.Pointer(&r)), 0)
	if ret == 0 {
		return event.Rect{}, fmt.Errorf("SystemParametersInfoW(SPI_GETWORKAREA): %w", callErr)
	}
	return r.toRect(), nil
}

// CursorPosition implements Backend.
func (w *Win32) CursorPosition() (Point, error) {
	var p point32
	ret, _, callErr := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if ret == 0 {
		return Point{}, fmt.Errorf("GetCursorPos: %w", callErr)
	}
	return Point{X: int(p.X), Y: int(p.Y)}, nil
}

// SetInputTransparent toggles WS_EX_TRANSPARENT, keeping WS_EX_LAYERED set.
func (w *Win32) SetInputTransparent(h Handle, transparent bool) error {
	idx := _GWL_EXSTYLE
	exStyle, _, _ := procGetWindowLongW.Call(uintptr(h), uintptr(idx))
	style := int32(exStyle) | _WS_EX_LAYERED
	if transparent {
		style |= _WS_EX_TRANSPARENT
	} else {
		style &^= _WS_EX_TRANSPARENT
	}

	ret, _, callErr := procSetWindowLongW.Call(uintptr(h), uintptr(idx), uintptr(style))
	if ret == 0 && callErr != windows.ERROR_SUCCESS {
		return fmt.Errorf("SetWindowLongW: %w", callErr)
	}
	return nil
}

// Foreground hooks share one callback; Win32 callbacks are a finite
// resource and must not be created per hook.
var (
	hooksMu          sync.Mutex
	hooks            = make(map[uintptr]func())
	foregroundHookCB = windows.NewCallback(onWinEvent)
)

func onWinEvent(hook, ev, hwnd, idObject, idChild, thread, ts uintptr) uintptr {
	if ev != _EVENT_SYSTEM_FOREGROUND {
		return 0
	}
	hooksMu.Lock()
	notify := hooks[hook]
	hooksMu.Unlock()
	if notify != nil {
		notify()
	}
	return 0
}

// WatchForeground installs an out-of-context EVENT_SYSTEM_FOREGROUND hook
// serviced by a dedicated OS thread running a message loop.
func (w *Win32) WatchForeground(notify func()) (func() error, error) {
	type installed struct {
		hook uintptr
		tid  uint32
		err  error
	}
	ready := make(chan installed, 1)
	done := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)

		tid := windows.GetCurrentThreadId()

		// Hold the lock across installation so the first callback
		// finds its notify function.
		hooksMu.Lock()
		hook, _, callErr := procSetWinEventHook.Call(
			_EVENT_SYSTEM_FOREGROUND, _EVENT_SYSTEM_FOREGROUND,
			0, foregroundHookCB, 0, 0, _WINEVENT_OUTOFCONTEXT,
		)
		if hook == 0 {
			hooksMu.Unlock()
			ready <- installed{err: fmt.Errorf("SetWinEventHook: %w", callErr)}
			return
		}
		hooks[hook] = notify
		hooksMu.Unlock()
		ready <- installed{hook: hook, tid: tid}

		var m msg
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
		}

		procUnhookWinEvent.Call(hook)
		hooksMu.Lock()
		delete(hooks, hook)
		hooksMu.Unlock()
	}()

	inst := <-ready
	if inst.err != nil {
		<-done
		return nil, inst.err
	}

	var once sync.Once
	release := func() error {
		var err error
		once.Do(func() {
			ret, _, callErr := procPostThreadMessageW.Call(uintptr(inst.tid), _WM_QUIT, 0, 0)
			if ret == 0 {
				err = fmt.Errorf("PostThreadMessageW(WM_QUIT): %w", callErr)
				return
			}
			<-done
		})
		return err
	}
	w.logger.Debug("foreground hook installed", "thread", inst.tid)
	return release, nil
}
