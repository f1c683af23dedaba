package pd2sync

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"golang.org/x/text/encoding/unicode"

	"github.com/pd2trade/pd2sync/internal/parser"
)

// ChatWatcher tails the chat log and publishes whisper, trade and join
// events for lines appended after Start.
type ChatWatcher struct {
	publish        func(Event)
	debounce       time.Duration
	includeRawLine bool
	logger         *slog.Logger

	lifeMu  sync.Mutex // guards the active watch
	watcher *fsnotify.Watcher
	path    string
	done    chan struct{}

	tailMu sync.Mutex // serializes poll

	cursorMu sync.Mutex // guards cursor and gen
	cursor   int64
	// gen identifies the active watch. Polls scheduled for an earlier
	// watch leave the cursor alone.
	gen uint64
}

func newChatWatcher(cfg *engineConfig, publish func(Event)) *ChatWatcher {
	return &ChatWatcher{
		publish:        publish,
		debounce:       cfg.chatDebounce,
		includeRawLine: cfg.includeRawLine,
		logger:         cfg.logger,
	}
}

// Start positions the cursor at the end of path and watches it for
// writes. Existing content is never replayed. A running watch on another
// file is replaced.
//
// Returns an error wrapping ErrResolution if path cannot be opened, or
// ErrWatch if the filesystem watch cannot be established.
func (w *ChatWatcher) Start(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResolution, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWatch, err)
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return fmt.Errorf("%w: watching %s: %w", ErrWatch, path, err)
	}

	done := make(chan struct{})

	w.lifeMu.Lock()
	gen := w.reset(info.Size())
	oldWatcher, oldDone := w.watcher, w.done
	w.watcher, w.path, w.done = fw, path, done
	w.lifeMu.Unlock()

	go w.run(fw, path, gen, done)
	closeWatch(oldWatcher, oldDone)

	w.logger.Debug("chat watch started", "path", path, "cursor", info.Size())
	return nil
}

// Stop releases the filesystem watch. Safe to call multiple times.
func (w *ChatWatcher) Stop() error {
	w.lifeMu.Lock()
	fw, done := w.watcher, w.done
	if fw == nil {
		w.lifeMu.Unlock()
		return nil
	}
	w.invalidate()
	w.watcher, w.path, w.done = nil, "", nil
	w.lifeMu.Unlock()

	return closeWatch(fw, done)
}

// closeWatch closes fw and waits for its consumer to exit. fw may be nil.
func closeWatch(fw *fsnotify.Watcher, done <-chan struct{}) error {
	if fw == nil {
		return nil
	}
	err := fw.Close()
	<-done
	return err
}

// Path returns the watched file, or "" when not watching.
func (w *ChatWatcher) Path() string {
	w.lifeMu.Lock()
	defer w.lifeMu.Unlock()
	return w.path
}

// Cursor returns the byte offset up to which the log has been consumed.
func (w *ChatWatcher) Cursor() int64 {
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()
	return w.cursor
}

func (w *ChatWatcher) setCursor(off int64) {
	w.cursorMu.Lock()
	w.cursor = off
	w.cursorMu.Unlock()
}

// reset starts a new generation at off and returns it.
func (w *ChatWatcher) reset(off int64) uint64 {
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()
	w.gen++
	w.cursor = off
	return w.gen
}

// invalidate ends the current generation without moving the cursor.
func (w *ChatWatcher) invalidate() {
	w.cursorMu.Lock()
	w.gen++
	w.cursorMu.Unlock()
}

// generation returns the active generation.
func (w *ChatWatcher) generation() uint64 {
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()
	return w.gen
}

// position returns the cursor if gen is still active.
func (w *ChatWatcher) position(gen uint64) (int64, bool) {
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()
	return w.cursor, w.gen == gen
}

// commit moves the cursor to off if gen is still active.
func (w *ChatWatcher) commit(gen uint64, off int64) bool {
	w.cursorMu.Lock()
	defer w.cursorMu.Unlock()
	if w.gen != gen {
		return false
	}
	w.cursor = off
	return true
}

func (w *ChatWatcher) run(fw *fsnotify.Watcher, path string, gen uint64, done chan<- struct{}) {
	defer close(done)

	schedule := func(f func()) { f() }
	if w.debounce > 0 {
		schedule = debounce.New(w.debounce)
		// Replace any pending read so nothing fires after Stop.
		defer schedule(func() {})
	}

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				schedule(func() { w.poll(path, gen) })
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("chat watch error", "path", path, "error", err)
		}
	}
}

// poll consumes everything appended since the cursor. gen is the watch
// generation the poll was scheduled for; a poll whose watch has since been
// replaced or stopped neither moves the cursor nor publishes.
//
//   - size < cursor: the file was truncated; the cursor snaps to the new size.
//   - size == 0: the cursor resets to 0.
//   - cursor >= size: nothing new.
//   - otherwise: the new bytes are read, decoded lossily and parsed line by
//     line, and the cursor moves to the position actually reached.
func (w *ChatWatcher) poll(path string, gen uint64) {
	w.tailMu.Lock()
	defer w.tailMu.Unlock()

	cursor, ok := w.position(gen)
	if !ok {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		w.logger.Debug("opening chat log failed", "path", path, "error", err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		w.logger.Debug("stat chat log failed", "path", path, "error", err)
		return
	}
	size := info.Size()

	switch {
	case size < cursor:
		w.logger.Debug("chat log truncated", "cursor", cursor, "size", size)
		w.commit(gen, size)
		return
	case size == 0:
		w.commit(gen, 0)
		return
	case cursor >= size:
		return
	}

	if _, err := f.Seek(cursor, io.SeekStart); err != nil {
		w.logger.Debug("seeking chat log failed", "error", err)
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		w.logger.Debug("reading chat log failed", "error", err)
	}
	if !w.commit(gen, cursor+int64(len(data))) {
		w.logger.Debug("chat watch replaced during read", "path", path)
		return
	}

	for _, line := range splitLines(decodeLossy(data)) {
		for _, ev := range parser.Parse(line) {
			if w.includeRawLine {
				ev.RawLine = line
			}
			w.publish(ev)
		}
	}
}

// decodeLossy decodes UTF-8, replacing invalid sequences with U+FFFD.
func decodeLossy(data []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "\uFFFD")
	}
	return string(out)
}

// splitLines splits on '\n', drops trailing '\r' and skips empty lines.
func splitLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
