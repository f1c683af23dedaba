// Package pd2sync keeps a desktop overlay in sync with the Diablo II
// window and surfaces chat events from Project Diablo 2 logs.
//
// An Engine runs four cooperating parts and pushes everything they observe
// onto one event bus:
//   - FocusMonitor reports when the game window gains or loses focus
//   - BoundsTracker reports the rect the overlay should cover
//   - ClickThroughArbiter makes overlay windows interactive only while
//     the cursor is over a registered popup rect
//   - ChatWatcher tails pd2_chat.log and reports whispers, trade
//     requests and joins
//
// # Basic Usage
//
//	engine := pd2sync.New(pd2sync.WithLogger(logger))
//	defer engine.Close()
//
//	events, cancel := engine.Subscribe(0)
//	defer cancel()
//
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := engine.StartChatWatch(""); err != nil {
//	    log.Printf("chat watch: %v", err)
//	}
//
//	for ev := range events {
//	    switch ev.Type {
//	    case pd2sync.EventWindowMoved:
//	        fmt.Printf("move overlay to %+v\n", ev.Moved.Rect)
//	    case pd2sync.EventTradeMessage:
//	        fmt.Printf("%s wants %s\n", ev.Trade.PlayerName, ev.Trade.ItemName)
//	    }
//	}
//
// To parse a single chat line:
//
//	for _, ev := range pd2sync.ParseLine(line) {
//	    // process event
//	}
//
// # Platform Support
//
// Windows is queried through Win32 and Linux through X11 (including
// XWayland). Elsewhere, and on Linux without a display, window geometry
// is read from the d2gl wrapper's d2gl.json, the game window is always
// considered focused and click-through arbitration is inactive.
//
// # Disclaimer
//
// This is an unofficial tool and is not affiliated with Blizzard
// Entertainment or the Project Diablo 2 team.
package pd2sync
