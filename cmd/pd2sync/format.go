package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pd2trade/pd2sync/pkg/pd2sync"
)

// ValidFormats lists the accepted --format values.
var ValidFormats = map[string]bool{
	"jsonl":  true,
	"pretty": true,
}

// OutputEvent writes ev to w in the named format.
func OutputEvent(format string, ev pd2sync.Event, w io.Writer) error {
	switch format {
	case "jsonl":
		return OutputJSON(ev, w)
	case "pretty":
		return OutputPretty(ev, w)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// OutputJSON writes ev as a single JSON line.
func OutputJSON(ev pd2sync.Event, w io.Writer) error {
	return json.NewEncoder(w).Encode(ev)
}

// OutputPretty writes ev as one human-readable line.
func OutputPretty(ev pd2sync.Event, w io.Writer) error {
	ts := ev.Time.Format("15:04:05")

	var line string
	switch ev.Type {
	case pd2sync.EventFocusChanged:
		if ev.Focused != nil && *ev.Focused {
			line = "* Game focused"
		} else {
			line = "* Game unfocused"
		}
	case pd2sync.EventWindowMoved:
		if ev.Moved == nil {
			return nil
		}
		r, d := ev.Moved.Rect, ev.Moved.Delta
		line = fmt.Sprintf("# Bounds %d,%d %dx%d (moved %+d,%+d)", r.X, r.Y, r.Width, r.Height, d.DX, d.DY)
	case pd2sync.EventWhisperReceived:
		if ev.Whisper == nil {
			return nil
		}
		arrow := ">"
		if ev.Whisper.IsIncoming {
			arrow = "<"
		}
		line = fmt.Sprintf("%s %s: %s", arrow, ev.Whisper.From, ev.Whisper.Message)
	case pd2sync.EventTradeMessage:
		if ev.Trade == nil {
			return nil
		}
		t := ev.Trade
		line = "$ Trade with " + t.PlayerName
		if t.ItemName != "" {
			line += ": " + t.ItemName
		}
		if t.Price != "" {
			line += " for " + t.Price
		}
	case pd2sync.EventJoin:
		if ev.Join == nil {
			return nil
		}
		line = fmt.Sprintf("+ %s joined", ev.Join.From)
	case pd2sync.EventError:
		line = "! " + ev.Error
	default:
		line = fmt.Sprintf("? %s", ev.Type)
	}

	_, err := fmt.Fprintf(w, "[%s] %s\n", ts, line)
	return err
}
