package pd2sync

import (
	"bufio"
	"context"
	"errors"
	"iter"
	"os"
	"strings"

	"github.com/pd2trade/pd2sync/internal/parser"
)

// ParseLine classifies a single chat log line.
//
// A line yields no event when it matches no known grammar, one event for a
// whisper or join, and two events for a trade whisper: a TradeMessage
// followed by a WhisperReceived.
//
// Example:
//
//	for _, ev := range pd2sync.ParseLine("4,shrackx(shrack) joined our world.") {
//	    fmt.Printf("%s joined\n", ev.Join.From)
//	}
func ParseLine(line string) []Event {
	return parser.Parse(line)
}

// ParseFile parses a chat log file and returns an iterator over events.
// The file is opened lazily on first iteration, so the returned iterator
// is cheap to create but must be consumed to release resources.
// Invalid UTF-8 is replaced with U+FFFD rather than failing the read.
//
// The iterator yields (Event, error) pairs. When an error occurs:
//   - File open errors: yields (Event{}, error) once and stops
//   - Context cancellation: yields (Event{}, ctx.Err()) and stops
//
// Example:
//
//	for ev, err := range pd2sync.ParseFile(ctx, "pd2_chat.log") {
//	    if err != nil {
//	        log.Printf("error: %v", err)
//	        break
//	    }
//	    fmt.Printf("event: %+v\n", ev)
//	}
func ParseFile(ctx context.Context, path string, opts ...ParseOption) iter.Seq2[Event, error] {
	if path == "" {
		return func(yield func(Event, error) bool) {
			yield(Event{}, errors.New("pd2sync: path required"))
		}
	}

	cfg := applyParseOptions(opts)

	return func(yield func(Event, error) bool) {
		file, err := os.Open(path)
		if err != nil {
			yield(Event{}, err)
			return
		}
		defer file.Close()

		scanner := bufio.NewScanner(file)
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 512*1024)

		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				yield(Event{}, err)
				return
			}

			line := strings.TrimSuffix(decodeLossy(scanner.Bytes()), "\r")
			for _, ev := range parser.Parse(line) {
				if !cfg.filter.Allows(ev.Type) {
					continue
				}
				if cfg.includeRawLine {
					ev.RawLine = line
				}
				if !yield(ev, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield(Event{}, err)
		}
	}
}

// ParseFileAll parses a chat log file and collects all events into a
// slice. Stops on first error and returns events collected so far.
func ParseFileAll(ctx context.Context, path string, opts ...ParseOption) ([]Event, error) {
	events := make([]Event, 0, 64)
	for ev, err := range ParseFile(ctx, path, opts...) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}
