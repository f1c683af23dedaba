// Package event defines the records the sync engine publishes to the
// presentation layer.
//
// This package is separated from the main pd2sync package to avoid import
// cycles between pkg/pd2sync, internal/parser and internal/platform.
package event

import (
	"sort"
	"strings"
	"time"
)

// Type represents the type of an engine event.
type Type string

const (
	// FocusChanged reports that the tracked window gained or lost focus.
	FocusChanged Type = "focus-changed"

	// WindowMoved reports new overlay bounds.
	WindowMoved Type = "window-moved"

	// WhisperReceived reports an incoming or outgoing whisper.
	WhisperReceived Type = "whisper-received"

	// TradeMessage reports a whisper carrying a trade request.
	TradeMessage Type = "trade-message"

	// Join reports another player joining the current game.
	Join Type = "join"

	// Error carries a user-facing setup problem.
	Error Type = "error"
)

// allTypes is the canonical list of all event types.
var allTypes = []Type{FocusChanged, WindowMoved, WhisperReceived, TradeMessage, Join, Error}

// TypeNames returns a sorted list of all valid event type names.
func TypeNames() []string {
	names := make([]string, len(allTypes))
	for i, t := range allTypes {
		names[i] = string(t)
	}
	sort.Strings(names)
	return names
}

var typeByName = func() map[string]Type {
	m := make(map[string]Type, len(allTypes))
	for _, t := range allTypes {
		m[string(t)] = t
	}
	return m
}()

// ParseType converts a string to Type if valid.
// It is case-insensitive, trims surrounding whitespace and accepts
// underscores in place of hyphens.
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "_", "-")
	t, ok := typeByName[name]
	return t, ok
}

// Rect is an absolute screen rectangle of a window or work area.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Delta is the signed movement between two consecutive bounds samples.
type Delta struct {
	DX int `json:"dx"`
	DY int `json:"dy"`
}

// Sub returns the movement from prev to r.
func (r Rect) Sub(prev Rect) Delta {
	return Delta{DX: r.X - prev.X, DY: r.Y - prev.Y}
}

// Moved is the payload of a WindowMoved event.
type Moved struct {
	Rect  Rect  `json:"rect"`
	Delta Delta `json:"delta"`
}

// Whisper is the payload of a WhisperReceived event.
type Whisper struct {
	IsTrade    bool   `json:"isTrade"`
	From       string `json:"from"`
	Message    string `json:"message"`
	ItemName   string `json:"itemName,omitempty"`
	IsJoin     bool   `json:"isJoin"`
	IsIncoming bool   `json:"isIncoming"`
}

// Trade is the payload of a TradeMessage event. AccountName is empty when
// the sender part carried no account in parentheses.
type Trade struct {
	IsIncoming    bool   `json:"isIncoming"`
	PlayerName    string `json:"playerName"`
	AccountName   string `json:"accountName,omitempty"`
	CharacterName string `json:"characterName,omitempty"`
	Message       string `json:"message"`
	ItemName      string `json:"itemName,omitempty"`
	Price         string `json:"price,omitempty"`
}

// Joined is the payload of a Join event.
type Joined struct {
	// From is the account name when present, otherwise the character name.
	From      string `json:"from"`
	Character string `json:"character,omitempty"`
	Account   string `json:"account,omitempty"`
	Message   string `json:"message"`
}

// Event is a single record pushed to the event bus.
// Exactly one payload field is set, matching Type.
type Event struct {
	// Type is the event type.
	Type Type `json:"type"`

	// Time is when the engine observed the change.
	Time time.Time `json:"time"`

	Focused *bool    `json:"focused,omitempty"`
	Moved   *Moved   `json:"moved,omitempty"`
	Whisper *Whisper `json:"whisper,omitempty"`
	Trade   *Trade   `json:"trade,omitempty"`
	Join    *Joined  `json:"join,omitempty"`
	Error   string   `json:"error,omitempty"`

	// RawLine is the original chat log line (only included if requested).
	RawLine string `json:"raw_line,omitempty"`
}

// NewFocusChanged builds a FocusChanged event.
func NewFocusChanged(focused bool) Event {
	return Event{Type: FocusChanged, Time: time.Now(), Focused: &focused}
}

// NewWindowMoved builds a WindowMoved event.
func NewWindowMoved(rect Rect, delta Delta) Event {
	return Event{Type: WindowMoved, Time: time.Now(), Moved: &Moved{Rect: rect, Delta: delta}}
}

// NewError builds an Error event.
func NewError(msg string) Event {
	return Event{Type: Error, Time: time.Now(), Error: msg}
}
