package pd2sync

import (
	"sync"
	"testing"
	"time"

	"github.com/pd2trade/pd2sync/internal/platform"
	"github.com/pd2trade/pd2sync/internal/platform/platformtest"
	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

const (
	gameHandle  platform.Handle = 1
	otherHandle platform.Handle = 2
)

var gameRect = event.Rect{X: 100, Y: 50, Width: 800, Height: 600}

// recorder collects published events.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) ofType(t EventType) []Event {
	var out []Event
	for _, ev := range r.all() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func testConfig() *engineConfig {
	cfg := applyOptions(nil)
	cfg.focusPollInterval = 5 * time.Millisecond
	cfg.boundsInterval = 5 * time.Millisecond
	cfg.clickThroughInterval = 5 * time.Millisecond
	cfg.chatDebounce = 10 * time.Millisecond
	return cfg
}

// newGameBackend returns a fake with the game window present and focused.
func newGameBackend() *platformtest.Backend {
	b := &platformtest.Backend{}
	b.AddWindow(gameHandle, "Diablo II", gameRect)
	b.AddWindow(otherHandle, "Notepad", event.Rect{Width: 10, Height: 10})
	b.SetForeground(platform.Window{Handle: gameHandle, PID: 9999, Title: "Diablo II"})
	return b
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
