// Package tailer follows the sibling game-event log with tail -F semantics.
package tailer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/nxadm/tail"
)

// errBuffer is the size of the error channel. Errors beyond it are dropped.
const errBuffer = 16

// Line is one line read from the followed file.
type Line struct {
	// Num is the 1-based line number since the follower started.
	Num int
	// Text is the line without its trailing line terminator.
	Text string
	// Time is when the line was read.
	Time time.Time
}

// Config controls how a file is followed.
type Config struct {
	// ReOpen reopens the file when it is truncated or recreated (tail -F).
	ReOpen bool

	// Poll uses polling instead of inotify/ReadDirectoryChangesW.
	Poll bool

	// MustExist requires the file to exist before starting.
	MustExist bool

	// FromStart reads existing content instead of starting at end-of-file.
	FromStart bool

	// SkipEmpty drops blank lines.
	SkipEmpty bool
}

// DefaultConfig returns the configuration used for the game-event log.
func DefaultConfig() Config {
	return Config{
		ReOpen:    true,
		Poll:      false,
		MustExist: true,
		FromStart: false,
		SkipEmpty: true,
	}
}

// Follower wraps nxadm/tail and delivers lines on a channel until stopped.
type Follower struct {
	t      *tail.Tail
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	lines  chan Line
	errors chan error
	doneCh chan struct{}

	mu      sync.Mutex
	stopped bool
}

// Follow starts following path. The context controls the follower's lifetime.
func Follow(ctx context.Context, path string, cfg Config) (*Follower, error) {
	whence := io.SeekEnd
	if cfg.FromStart {
		whence = io.SeekStart
	}

	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    cfg.ReOpen,
		Poll:      cfg.Poll,
		MustExist: cfg.MustExist,
		Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("following %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	f := &Follower{
		t:      t,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		lines:  make(chan Line),
		errors: make(chan error, errBuffer),
		doneCh: make(chan struct{}),
	}
	go f.run()
	return f, nil
}

// Lines returns the channel of followed lines. It is closed when the
// follower stops.
func (f *Follower) Lines() <-chan Line {
	return f.lines
}

// Errors returns read errors. Errors are sent non-blocking; if the channel
// is not read, errors are dropped.
func (f *Follower) Errors() <-chan error {
	return f.errors
}

// Stop stops following and closes all channels.
// Safe to call multiple times.
func (f *Follower) Stop() error {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return nil
	}
	f.stopped = true
	f.mu.Unlock()

	f.cancel()
	<-f.doneCh
	err := f.t.Stop()
	f.t.Cleanup()
	return err
}

func (f *Follower) run() {
	defer close(f.doneCh)
	defer close(f.lines)
	defer close(f.errors)

	num := 0
	for {
		select {
		case <-f.ctx.Done():
			return
		case tl, ok := <-f.t.Lines:
			if !ok {
				return
			}
			if tl.Err != nil {
				select {
				case f.errors <- fmt.Errorf("tail: %w", tl.Err):
				default:
				}
				continue
			}

			text := strings.TrimRight(tl.Text, "\r")
			if f.cfg.SkipEmpty && strings.TrimSpace(text) == "" {
				continue
			}
			num++

			select {
			case f.lines <- Line{Num: num, Text: text, Time: tl.Time}:
			case <-f.ctx.Done():
				return
			}
		}
	}
}
