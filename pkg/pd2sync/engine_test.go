package pd2sync_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pd2trade/pd2sync/internal/logfinder"
	"github.com/pd2trade/pd2sync/internal/platform"
	"github.com/pd2trade/pd2sync/internal/platform/platformtest"
	"github.com/pd2trade/pd2sync/pkg/pd2sync"
)

var testGameRect = pd2sync.Rect{X: 40, Y: 30, Width: 1280, Height: 720}

func newFakeBackend() *platformtest.Backend {
	b := &platformtest.Backend{}
	b.AddWindow(1, "Diablo II", testGameRect)
	b.SetForeground(platform.Window{Handle: 1, PID: 4242, Title: "Diablo II"})
	return b
}

// diagnosingBackend reports a setup problem.
type diagnosingBackend struct {
	*platformtest.Backend
}

func (diagnosingBackend) Diagnose() []string {
	return []string{"d2gl.json not found"}
}

func newTestEngine(b pd2sync.Backend, opts ...pd2sync.Option) *pd2sync.Engine {
	base := []pd2sync.Option{
		pd2sync.WithBackend(b),
		pd2sync.WithBoundsInterval(5 * time.Millisecond),
		pd2sync.WithClickThroughInterval(5 * time.Millisecond),
		pd2sync.WithChatDebounce(10 * time.Millisecond),
	}
	return pd2sync.New(append(base, opts...)...)
}

func next(t *testing.T, ch <-chan pd2sync.Event) pd2sync.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return pd2sync.Event{}
}

func TestEngine_StartPublishesFocusThenBounds(t *testing.T) {
	e := newTestEngine(newFakeBackend())
	defer e.Close()

	events, cancel := e.Subscribe(16)
	defer cancel()

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	first := next(t, events)
	if first.Type != pd2sync.EventFocusChanged || !*first.Focused {
		t.Fatalf("first event = %+v, want focus-changed(true)", first)
	}
	second := next(t, events)
	if second.Type != pd2sync.EventWindowMoved {
		t.Fatalf("second event = %+v, want window-moved", second)
	}
	if second.Moved.Rect != testGameRect || second.Moved.Delta != (pd2sync.Delta{}) {
		t.Errorf("window-moved = %+v, want game rect with zero delta", second.Moved)
	}

	if !e.Focused() {
		t.Error("Focused() = false, want true")
	}
	if got := e.Bounds(); got != testGameRect {
		t.Errorf("Bounds() = %+v, want %+v", got, testGameRect)
	}
}

func TestEngine_FocusLossMovesToWorkArea(t *testing.T) {
	b := newFakeBackend()
	workArea := pd2sync.Rect{Width: 2560, Height: 1400}
	b.SetWorkArea(&workArea)

	e := newTestEngine(b)
	defer e.Close()
	events, cancel := e.Subscribe(64, pd2sync.WithIncludeTypes(pd2sync.EventFocusChanged, pd2sync.EventWindowMoved))
	defer cancel()

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	next(t, events) // focus-changed(true)
	next(t, events) // window-moved(game)

	b.SetForeground(platform.Window{Handle: 99, PID: 1})
	b.FireForeground()

	// The bounds loop may observe the change before the focus consumer
	// does, so the two events can arrive in either order.
	got := map[pd2sync.EventType]pd2sync.Event{}
	for i := 0; i < 2; i++ {
		ev := next(t, events)
		got[ev.Type] = ev
	}

	focus, ok := got[pd2sync.EventFocusChanged]
	if !ok || *focus.Focused {
		t.Fatalf("events = %+v, want focus-changed(false)", got)
	}
	moved, ok := got[pd2sync.EventWindowMoved]
	if !ok || moved.Moved.Rect != workArea {
		t.Fatalf("events = %+v, want window-moved to work area", got)
	}
	want := pd2sync.Delta{DX: -testGameRect.X, DY: -testGameRect.Y}
	if moved.Moved.Delta != want {
		t.Errorf("Delta = %+v, want %+v", moved.Moved.Delta, want)
	}
}

func TestEngine_DiagnosticsBecomeErrorEvents(t *testing.T) {
	e := newTestEngine(diagnosingBackend{newFakeBackend()})
	defer e.Close()

	errs, cancel := e.Subscribe(4, pd2sync.WithIncludeTypes(pd2sync.EventError))
	defer cancel()

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ev := next(t, errs)
	if ev.Error != "d2gl.json not found" {
		t.Errorf("Error = %q", ev.Error)
	}
}

func TestEngine_HookFailure(t *testing.T) {
	b := newFakeBackend()
	b.HookErr = errors.New("hook refused")
	e := newTestEngine(b)
	defer e.Close()

	if err := e.Start(context.Background()); !errors.Is(err, pd2sync.ErrWatch) {
		t.Errorf("Start() error = %v, want %v", err, pd2sync.ErrWatch)
	}
}

func TestEngine_BoundsDefault(t *testing.T) {
	e := newTestEngine(&platformtest.Backend{},
		pd2sync.WithDefaultBounds(pd2sync.Rect{Width: 800, Height: 600}))
	defer e.Close()

	if got := e.Bounds(); got != (pd2sync.Rect{Width: 800, Height: 600}) {
		t.Errorf("Bounds() = %+v, want default", got)
	}
	if e.Focused() {
		t.Error("Focused() = true without a game window")
	}
}

func TestEngine_ChatWatch(t *testing.T) {
	install := t.TempDir()
	e := newTestEngine(newFakeBackend())
	defer e.Close()

	whispers, cancel := e.Subscribe(8, pd2sync.WithIncludeTypes(pd2sync.EventWhisperReceived))
	defer cancel()

	path, err := e.StartChatWatch(install)
	if err != nil {
		t.Fatalf("StartChatWatch() error = %v", err)
	}
	want := filepath.Join(logfinder.LogDir(install), logfinder.ChatLogName)
	if resolved, _ := filepath.EvalSymlinks(filepath.Dir(want)); resolved != "" {
		want = filepath.Join(resolved, logfinder.ChatLogName)
	}
	if path != want {
		t.Errorf("StartChatWatch() = %q, want %q", path, want)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(path), logfinder.GameLogName)); err != nil {
		t.Errorf("sibling game log not created: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("2,From Trader (*tacc): still selling?\n")
	f.Close()

	ev := next(t, whispers)
	if ev.Whisper.From != "tacc" || ev.Whisper.Message != "still selling?" {
		t.Errorf("whisper = %+v", ev.Whisper)
	}
	if e.ChatCursor() == 0 {
		t.Error("ChatCursor() did not advance")
	}

	if err := e.StopChatWatch(); err != nil {
		t.Errorf("StopChatWatch() error = %v", err)
	}
	if err := e.StopChatWatch(); err != nil {
		t.Errorf("second StopChatWatch() error = %v", err)
	}
}

func TestEngine_ResolveInstallDir(t *testing.T) {
	install := t.TempDir()
	t.Setenv(logfinder.EnvInstallDir, install)

	e := newTestEngine(newFakeBackend())
	defer e.Close()

	got, err := e.AutoDetectInstallDir()
	if err != nil {
		t.Fatalf("AutoDetectInstallDir() error = %v", err)
	}
	want, _ := filepath.EvalSymlinks(install)
	if got != want {
		t.Errorf("AutoDetectInstallDir() = %q, want %q", got, want)
	}

	other := t.TempDir()
	got, err = e.ResolveInstallDir(other)
	if err != nil {
		t.Fatalf("ResolveInstallDir() error = %v", err)
	}
	if want, _ := filepath.EvalSymlinks(other); got != want {
		t.Errorf("ResolveInstallDir() = %q, want override %q", got, want)
	}
}

func TestEngine_ResolutionFailure(t *testing.T) {
	t.Setenv(logfinder.EnvInstallDir, "")
	t.Setenv("HOME", t.TempDir())

	for _, dir := range logfinder.DefaultInstallDirs() {
		if _, err := os.Stat(dir); err == nil {
			t.Skipf("install directory %s exists on this machine", dir)
		}
	}

	e := newTestEngine(newFakeBackend())
	defer e.Close()

	_, err := e.StartChatWatch(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, pd2sync.ErrResolution) {
		t.Errorf("StartChatWatch() error = %v, want %v", err, pd2sync.ErrResolution)
	}
	if !errors.Is(err, pd2sync.ErrInstallDirNotFound) {
		t.Errorf("StartChatWatch() error = %v, want to wrap %v", err, pd2sync.ErrInstallDirNotFound)
	}
}

func TestEngine_Close(t *testing.T) {
	e := newTestEngine(newFakeBackend())
	events, _ := e.Subscribe(16)

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := e.Start(context.Background()); err != nil {
		t.Errorf("second Start() error = %v", err)
	}

	if err := e.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	// Drain until the channel is closed.
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				if err := e.Start(context.Background()); !errors.Is(err, pd2sync.ErrClosed) {
					t.Errorf("Start() after Close error = %v, want %v", err, pd2sync.ErrClosed)
				}
				return
			}
		case <-timeout:
			t.Fatal("event channel not closed after Close")
		}
	}
}
