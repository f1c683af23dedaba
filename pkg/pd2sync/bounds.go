package pd2sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pd2trade/pd2sync/internal/platform"
	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// BoundsTracker publishes window-moved events so the overlay can follow
// the tracked window.
type BoundsTracker struct {
	backend       platform.Backend
	title         string
	focused       func() bool
	defaultBounds Rect
	interval      time.Duration
	publish       func(Event)
	logger        *slog.Logger

	sampleMu sync.Mutex // serializes Sample

	mu   sync.Mutex // guards prev
	prev *Rect
}

func newBoundsTracker(backend platform.Backend, cfg *engineConfig, focused func() bool, publish func(Event)) *BoundsTracker {
	return &BoundsTracker{
		backend:       backend,
		title:         cfg.trackedTitle,
		focused:       focused,
		defaultBounds: cfg.defaultBounds,
		interval:      cfg.boundsInterval,
		publish:       publish,
		logger:        cfg.logger,
	}
}

// AppropriateBounds returns the tracked window's rect while it is focused
// and present, the work area otherwise. ok is false when neither can be
// queried.
func (t *BoundsTracker) AppropriateBounds() (rect Rect, ok bool) {
	if t.focused() {
		if h, err := t.backend.FindWindow(t.title); err == nil {
			r, err := t.backend.WindowRect(h)
			if err == nil {
				return r, true
			}
			t.logger.Debug("window rect query failed", "error", err)
		}
	}

	r, err := t.backend.WorkArea()
	if err != nil {
		t.logger.Debug("work area query failed", "error", err)
		return Rect{}, false
	}
	return r, true
}

// BoundsOrDefault is AppropriateBounds with the configured default rect as
// the final fallback.
func (t *BoundsTracker) BoundsOrDefault() Rect {
	if r, ok := t.AppropriateBounds(); ok {
		return r
	}
	return t.defaultBounds
}

// Last returns the last published rect. ok is false before the first
// publication.
func (t *BoundsTracker) Last() (rect Rect, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prev == nil {
		return Rect{}, false
	}
	return *t.prev, true
}

// Sample takes one bounds sample and publishes it if it differs from the
// previous one. The first successful sample is always published with a
// zero delta. It reports whether an event was published.
func (t *BoundsTracker) Sample() bool {
	t.sampleMu.Lock()
	defer t.sampleMu.Unlock()

	rect, ok := t.AppropriateBounds()
	if !ok {
		return false
	}

	t.mu.Lock()
	var delta Delta
	if t.prev != nil {
		if *t.prev == rect {
			t.mu.Unlock()
			return false
		}
		delta = rect.Sub(*t.prev)
	}
	t.prev = &rect
	t.mu.Unlock()

	t.publish(event.NewWindowMoved(rect, delta))
	return true
}

// Run samples at the configured interval until ctx is cancelled.
// Failed samples are skipped.
func (t *BoundsTracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sample()
		}
	}
}
