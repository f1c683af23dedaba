package pd2sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pd2trade/pd2sync/internal/platform"
	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// FocusMonitor publishes focus-changed events for the tracked window.
//
// The tracked window counts as focused when it is the foreground window,
// when the foreground window belongs to this process, or when the
// foreground window's title carries the overlay title prefix. Interacting
// with the overlay therefore never reports a focus loss.
type FocusMonitor struct {
	backend      platform.Backend
	title        string
	prefix       string
	ownPID       int
	pollInterval time.Duration
	publish      func(Event)
	logger       *slog.Logger

	mu   sync.Mutex // guards last
	last *bool

	lifeMu   sync.Mutex // guards the fields below, never held across hook calls
	running  bool
	starting bool
	cancel   context.CancelFunc
	release  func() error
	done     chan struct{}
}

func newFocusMonitor(backend platform.Backend, cfg *engineConfig, publish func(Event)) *FocusMonitor {
	return &FocusMonitor{
		backend:      backend,
		title:        cfg.trackedTitle,
		prefix:       cfg.overlayPrefix,
		ownPID:       os.Getpid(),
		pollInterval: cfg.focusPollInterval,
		publish:      publish,
		logger:       cfg.logger,
	}
}

// IsTrackedWindowFocused queries the backend once. A missing tracked
// window is reported as not focused.
func (m *FocusMonitor) IsTrackedWindowFocused() bool {
	tracked, err := m.backend.FindWindow(m.title)
	if err != nil {
		return false
	}
	fg, err := m.backend.ForegroundWindow()
	if err != nil {
		m.logger.Debug("foreground query failed", "error", err)
		return false
	}

	switch {
	case fg.Handle == tracked:
		return true
	case fg.PID != 0 && fg.PID == m.ownPID:
		return true
	case m.prefix != "" && strings.HasPrefix(fg.Title, m.prefix):
		return true
	}
	return false
}

// Last returns the last published focus state. ok is false before the
// first publication.
func (m *FocusMonitor) Last() (focused, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		return false, false
	}
	return *m.last, true
}

// evaluate publishes and invokes cb when the focus state differs from the
// last published one. The first evaluation always publishes.
func (m *FocusMonitor) evaluate(cb func(bool)) {
	focused := m.IsTrackedWindowFocused()

	m.mu.Lock()
	if m.last != nil && *m.last == focused {
		m.mu.Unlock()
		return
	}
	m.last = &focused
	m.mu.Unlock()

	m.logger.Debug("focus changed", "focused", focused)
	m.publish(event.NewFocusChanged(focused))
	if cb != nil {
		cb(focused)
	}
}

// Start evaluates focus once, then follows changes through the backend's
// foreground hook when it has one and by polling otherwise. cb is invoked
// after every publication and may be nil.
//
// Start returns an error wrapping ErrWatch if the hook cannot be
// installed. Calling Start on a running monitor is a no-op.
func (m *FocusMonitor) Start(ctx context.Context, cb func(focused bool)) error {
	m.lifeMu.Lock()
	if m.running || m.starting {
		m.lifeMu.Unlock()
		return nil
	}
	m.starting = true
	m.lifeMu.Unlock()

	m.evaluate(cb)

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	var release func() error
	if notifier, ok := m.backend.(platform.ForegroundNotifier); ok {
		// The hook only signals; one consumer goroutine evaluates, so
		// side effects stay ordered. Bursts collapse into one pending
		// signal.
		signal := make(chan struct{}, 1)
		var err error
		release, err = notifier.WatchForeground(func() {
			select {
			case signal <- struct{}{}:
			default:
			}
		})
		if err != nil {
			cancel()
			m.lifeMu.Lock()
			m.starting = false
			m.lifeMu.Unlock()
			return fmt.Errorf("%w: foreground hook: %w", ErrWatch, err)
		}
		go m.consume(ctx, signal, cb, done)
	} else {
		go m.poll(ctx, cb, done)
	}

	m.lifeMu.Lock()
	m.starting = false
	m.running = true
	m.cancel = cancel
	m.release = release
	m.done = done
	m.lifeMu.Unlock()
	return nil
}

func (m *FocusMonitor) consume(ctx context.Context, signal <-chan struct{}, cb func(bool), done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-signal:
			m.evaluate(cb)
		}
	}
}

func (m *FocusMonitor) poll(ctx context.Context, cb func(bool), done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evaluate(cb)
		}
	}
}

// Stop releases the foreground hook if one was installed and stops the
// consumer or polling goroutine. Safe to call multiple times.
func (m *FocusMonitor) Stop() error {
	m.lifeMu.Lock()
	if !m.running {
		m.lifeMu.Unlock()
		return nil
	}
	m.running = false
	release, cancel, done := m.release, m.cancel, m.done
	m.release, m.cancel, m.done = nil, nil, nil
	m.lifeMu.Unlock()

	var err error
	if release != nil {
		err = release()
	}
	cancel()
	<-done
	return err
}
