package pd2sync

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"

	"github.com/pd2trade/pd2sync/internal/platform"
)

// OverlayWindows is how the arbiter reaches overlay windows by id.
type OverlayWindows interface {
	// Visible reports whether the window is shown. Missing windows are
	// reported as not visible.
	Visible(id string) (bool, error)

	// Origin returns the absolute position of the window's top-left corner.
	Origin(id string) (Point, error)

	// SetClickThrough makes the window pass pointer input through (true)
	// or receive it (false).
	SetClickThrough(id string, enabled bool) error
}

// nativeOverlays resolves overlay ids to native windows titled prefix+id.
type nativeOverlays struct {
	backend platform.Backend
	prefix  string
}

func (n nativeOverlays) handle(id string) (platform.Handle, error) {
	return n.backend.FindWindow(n.prefix + id)
}

func (n nativeOverlays) Visible(id string) (bool, error) {
	h, err := n.handle(id)
	if err != nil {
		return false, nil
	}
	return n.backend.WindowVisible(h)
}

func (n nativeOverlays) Origin(id string) (Point, error) {
	h, err := n.handle(id)
	if err != nil {
		return Point{}, err
	}
	r, err := n.backend.WindowRect(h)
	if err != nil {
		return Point{}, err
	}
	return Point{X: r.X, Y: r.Y}, nil
}

func (n nativeOverlays) SetClickThrough(id string, enabled bool) error {
	h, err := n.handle(id)
	if err != nil {
		return err
	}
	return n.backend.SetInputTransparent(h, enabled)
}

// ClickThroughArbiter makes overlay windows interactive only while the
// cursor is over one of their registered popup rects.
type ClickThroughArbiter struct {
	backend  platform.Backend
	windows  OverlayWindows
	interval time.Duration
	logger   *slog.Logger

	started atomic.Bool

	regMu  sync.Mutex // guards popups
	popups map[string][]PopupRect

	stateMu sync.Mutex // guards clickThrough
	// clickThrough holds the last successfully applied state per window.
	clickThrough map[string]bool
}

func newClickThroughArbiter(backend platform.Backend, windows OverlayWindows, cfg *engineConfig) *ClickThroughArbiter {
	return &ClickThroughArbiter{
		backend:      backend,
		windows:      windows,
		interval:     cfg.clickThroughInterval,
		logger:       cfg.logger,
		popups:       make(map[string][]PopupRect),
		clickThrough: make(map[string]bool),
	}
}

// RegisterPopupRects replaces the popup rects of window id. An empty list
// keeps the window click-through regardless of the cursor.
func (a *ClickThroughArbiter) RegisterPopupRects(id string, rects []PopupRect) {
	cp := slices.Clone(rects)
	if cp == nil {
		cp = []PopupRect{}
	}
	a.regMu.Lock()
	a.popups[id] = cp
	a.regMu.Unlock()
}

// PopupRects returns a copy of the popup rects registered for id.
func (a *ClickThroughArbiter) PopupRects(id string) ([]PopupRect, bool) {
	a.regMu.Lock()
	defer a.regMu.Unlock()
	rects, ok := a.popups[id]
	return slices.Clone(rects), ok
}

// ClickThrough returns the last applied state of window id.
func (a *ClickThroughArbiter) ClickThrough(id string) (enabled, ok bool) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	enabled, ok = a.clickThrough[id]
	return enabled, ok
}

// Start launches the arbitration loop. Only the first call has an effect.
func (a *ClickThroughArbiter) Start(ctx context.Context) {
	if !a.started.CompareAndSwap(false, true) {
		return
	}
	go a.run(ctx)
}

func (a *ClickThroughArbiter) run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *ClickThroughArbiter) snapshot() map[string][]PopupRect {
	a.regMu.Lock()
	defer a.regMu.Unlock()
	return maps.Clone(a.popups)
}

// tick reads the cursor once and applies the computed state to every
// visible registered window whose state changed or was never applied.
func (a *ClickThroughArbiter) tick() {
	cursor, err := a.backend.CursorPosition()
	if err != nil {
		a.logger.Debug("cursor query failed", "error", err)
		return
	}

	snap := a.snapshot()
	ids := lo.Keys(snap)
	sort.Strings(ids)

	for _, id := range ids {
		if err := a.evaluate(id, snap[id], cursor); err != nil {
			a.logger.Warn("click-through toggle failed", "window", id, "error", err)
		}
	}
}

func (a *ClickThroughArbiter) evaluate(id string, rects []PopupRect, cursor Point) error {
	visible, err := a.windows.Visible(id)
	if err != nil {
		a.logger.Debug("visibility query failed", "window", id, "error", err)
		return nil
	}
	if !visible {
		return nil
	}
	origin, err := a.windows.Origin(id)
	if err != nil {
		a.logger.Debug("origin query failed", "window", id, "error", err)
		return nil
	}

	x := float64(cursor.X - origin.X)
	y := float64(cursor.Y - origin.Y)
	interactive := lo.ContainsBy(rects, func(r PopupRect) bool {
		return r.Contains(x, y)
	})
	want := !interactive

	a.stateMu.Lock()
	applied, seen := a.clickThrough[id]
	a.stateMu.Unlock()
	if seen && applied == want {
		return nil
	}

	if err := a.windows.SetClickThrough(id, want); err != nil {
		return fmt.Errorf("%w: %w", ErrPlatformQuery, err)
	}

	a.stateMu.Lock()
	a.clickThrough[id] = want
	a.stateMu.Unlock()
	a.logger.Debug("click-through applied", "window", id, "enabled", want)
	return nil
}
