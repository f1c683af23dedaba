package pd2sync

import (
	"github.com/pd2trade/pd2sync/internal/platform"
	"github.com/pd2trade/pd2sync/pkg/pd2sync/event"
)

// Re-export event types for convenience.
// Users can import just "github.com/pd2trade/pd2sync/pkg/pd2sync"
// and use pd2sync.Event, pd2sync.EventTradeMessage, etc.

// Event is a record pushed to subscribers.
type Event = event.Event

// EventType is the type of an Event.
type EventType = event.Type

// Rect is an absolute screen rectangle.
type Rect = event.Rect

// Delta is the movement between two bounds samples.
type Delta = event.Delta

// Event type constants.
const (
	EventFocusChanged    = event.FocusChanged
	EventWindowMoved     = event.WindowMoved
	EventWhisperReceived = event.WhisperReceived
	EventTradeMessage    = event.TradeMessage
	EventJoin            = event.Join
	EventError           = event.Error
)

// Backend answers window system queries. See New for how one is chosen.
type Backend = platform.Backend

// Point is an absolute screen position.
type Point = platform.Point

// PopupRect is an interactive region of an overlay window, relative to the
// window's origin. Bounds are inclusive on all four edges.
type PopupRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Contains reports whether (x, y) lies within r, edges included.
func (r PopupRect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}
