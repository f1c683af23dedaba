package pd2sync

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	tradeLine   = "2,From shrack (*shrack): Hi, I'm interested in your Frostburn listed for 2 wss."
	joinLine    = "4,shrackx(shrack) joined our world. Diablo's minions grow stronger."
	whisperLine = "2,Sent to Mule (*muleacc): brb"
)

func writeChatLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pd2_chat.log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func appendChat(t *testing.T, path string, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := f.WriteString(data); err != nil {
		t.Fatal(err)
	}
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return info.Size()
}

func TestChatWatcher_PollParsesAppendedLines(t *testing.T) {
	path := writeChatLog(t, "2,From old (*old): history is not replayed\n")
	rec := &recorder{}
	w := newChatWatcher(testConfig(), rec.publish)
	w.setCursor(fileSize(t, path))

	appendChat(t, path, tradeLine+"\r\n"+joinLine+"\n3,ignored\n"+whisperLine+"\n")
	w.poll(path, w.generation())

	var types []EventType
	for _, ev := range rec.all() {
		types = append(types, ev.Type)
	}
	want := []EventType{EventTradeMessage, EventWhisperReceived, EventJoin, EventWhisperReceived}
	if len(types) != len(want) {
		t.Fatalf("types = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: Type = %v, want %v", i, types[i], want[i])
		}
	}

	events := rec.all()
	if tr := events[0].Trade; tr.ItemName != "Frostburn" || tr.Price != "2 wss" || tr.AccountName != "shrack" {
		t.Errorf("trade = %+v", tr)
	}
	if j := events[2].Join; j.From != "shrack" {
		t.Errorf("join From = %q, want %q", j.From, "shrack")
	}
	if wh := events[3].Whisper; wh.IsIncoming || wh.From != "muleacc" || wh.Message != "brb" {
		t.Errorf("whisper = %+v", wh)
	}
	if got, want := w.Cursor(), fileSize(t, path); got != want {
		t.Errorf("Cursor() = %d, want %d", got, want)
	}
}

func TestChatWatcher_PollNothingNew(t *testing.T) {
	path := writeChatLog(t, tradeLine+"\n")
	rec := &recorder{}
	w := newChatWatcher(testConfig(), rec.publish)
	w.setCursor(fileSize(t, path))

	w.poll(path, w.generation())
	if n := len(rec.all()); n != 0 {
		t.Errorf("published %d events, want 0", n)
	}
}

func TestChatWatcher_PollTruncation(t *testing.T) {
	path := writeChatLog(t, strings.Repeat(whisperLine+"\n", 10))
	rec := &recorder{}
	w := newChatWatcher(testConfig(), rec.publish)
	w.setCursor(fileSize(t, path))

	short := tradeLine + "\n"
	if err := os.WriteFile(path, []byte(short), 0644); err != nil {
		t.Fatal(err)
	}
	w.poll(path, w.generation())

	if n := len(rec.all()); n != 0 {
		t.Errorf("published %d events on truncation, want 0", n)
	}
	if got := w.Cursor(); got != int64(len(short)) {
		t.Errorf("Cursor() = %d, want %d", got, len(short))
	}

	// Lines after the truncation point are read normally.
	appendChat(t, path, joinLine+"\n")
	w.poll(path, w.generation())
	if got := rec.ofType(EventJoin); len(got) != 1 {
		t.Errorf("join events = %d, want 1", len(got))
	}
}

func TestChatWatcher_PollEmptyFileResetsCursor(t *testing.T) {
	path := writeChatLog(t, "")
	w := newChatWatcher(testConfig(), func(Event) {})
	w.setCursor(0)

	w.poll(path, w.generation())
	if got := w.Cursor(); got != 0 {
		t.Errorf("Cursor() = %d, want 0", got)
	}
}

func TestChatWatcher_LossyDecoding(t *testing.T) {
	path := writeChatLog(t, "")
	rec := &recorder{}
	w := newChatWatcher(testConfig(), rec.publish)

	appendChat(t, path, "2,From a (*acc): caf\xff\xfe ok\n")
	w.poll(path, w.generation())

	got := rec.ofType(EventWhisperReceived)
	if len(got) != 1 {
		t.Fatalf("whisper events = %d, want 1", len(got))
	}
	msg := got[0].Whisper.Message
	if !strings.Contains(msg, "\uFFFD") || !strings.HasSuffix(msg, " ok") {
		t.Errorf("Message = %q, want replacement characters", msg)
	}
}

func TestChatWatcher_PartialLineConsumed(t *testing.T) {
	path := writeChatLog(t, "")
	rec := &recorder{}
	w := newChatWatcher(testConfig(), rec.publish)

	appendChat(t, path, whisperLine)
	w.poll(path, w.generation())

	if n := len(rec.ofType(EventWhisperReceived)); n != 1 {
		t.Errorf("whisper events = %d, want 1", n)
	}
	if got, want := w.Cursor(), fileSize(t, path); got != want {
		t.Errorf("Cursor() = %d, want %d", got, want)
	}
}

func TestChatWatcher_IncludeRawLine(t *testing.T) {
	path := writeChatLog(t, "")
	rec := &recorder{}
	cfg := testConfig()
	cfg.includeRawLine = true
	w := newChatWatcher(cfg, rec.publish)

	appendChat(t, path, joinLine+"\r\n")
	w.poll(path, w.generation())

	got := rec.all()
	if len(got) != 1 || got[0].RawLine != joinLine {
		t.Errorf("events = %+v, want RawLine %q", got, joinLine)
	}
}

func TestChatWatcher_StartMissingFile(t *testing.T) {
	w := newChatWatcher(testConfig(), func(Event) {})
	err := w.Start(filepath.Join(t.TempDir(), "missing.log"))
	if !errors.Is(err, ErrResolution) {
		t.Errorf("Start() error = %v, want %v", err, ErrResolution)
	}
}

func TestChatWatcher_WatchesWrites(t *testing.T) {
	path := writeChatLog(t, tradeLine+"\n")
	rec := &recorder{}
	w := newChatWatcher(testConfig(), rec.publish)

	if err := w.Start(path); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if got, want := w.Cursor(), fileSize(t, path); got != want {
		t.Fatalf("Cursor() after Start = %d, want end of file %d", got, want)
	}
	if w.Path() != path {
		t.Errorf("Path() = %q, want %q", w.Path(), path)
	}

	appendChat(t, path, joinLine+"\n")
	waitFor(t, "join event", func() bool { return len(rec.ofType(EventJoin)) == 1 })

	if n := len(rec.ofType(EventTradeMessage)); n != 0 {
		t.Errorf("history replayed: %d trade events", n)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
	if w.Path() != "" {
		t.Errorf("Path() after Stop = %q, want empty", w.Path())
	}
}

func TestChatWatcher_RestartIgnoresStalePoll(t *testing.T) {
	first := writeChatLog(t, strings.Repeat(whisperLine+"\n", 200))
	second := writeChatLog(t, tradeLine+"\n")
	rec := &recorder{}
	w := newChatWatcher(testConfig(), rec.publish)

	if err := w.Start(first); err != nil {
		t.Fatalf("Start(first) error = %v", err)
	}
	stale := w.generation()

	if err := w.Start(second); err != nil {
		t.Fatalf("Start(second) error = %v", err)
	}
	defer w.Stop()

	// A read scheduled for the first file lands after the restart.
	appendChat(t, first, joinLine+"\n")
	w.poll(first, stale)

	if got, want := w.Cursor(), fileSize(t, second); got != want {
		t.Errorf("Cursor() = %d, want end of second file %d", got, want)
	}
	if n := len(rec.all()); n != 0 {
		t.Errorf("published %d events from the replaced watch, want 0", n)
	}

	appendChat(t, second, joinLine+"\n")
	w.poll(second, w.generation())
	if got := rec.ofType(EventJoin); len(got) != 1 {
		t.Errorf("join events = %d, want 1", len(got))
	}
	if got, want := w.Cursor(), fileSize(t, second); got != want {
		t.Errorf("Cursor() = %d, want %d", got, want)
	}
}

func TestChatWatcher_StopIgnoresPendingPoll(t *testing.T) {
	path := writeChatLog(t, tradeLine+"\n")
	rec := &recorder{}
	w := newChatWatcher(testConfig(), rec.publish)

	if err := w.Start(path); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	gen := w.generation()
	cursor := w.Cursor()
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	appendChat(t, path, joinLine+"\n")
	w.poll(path, gen)

	if n := len(rec.all()); n != 0 {
		t.Errorf("published %d events after Stop, want 0", n)
	}
	if got := w.Cursor(); got != cursor {
		t.Errorf("Cursor() = %d, want %d", got, cursor)
	}
}

func TestChatWatcher_CommitRejectsReplacedGeneration(t *testing.T) {
	w := newChatWatcher(testConfig(), func(Event) {})
	old := w.reset(10240)
	w.reset(50)

	if w.commit(old, 10300) {
		t.Error("commit() with a replaced generation succeeded")
	}
	if got := w.Cursor(); got != 50 {
		t.Errorf("Cursor() = %d, want 50", got)
	}
}
