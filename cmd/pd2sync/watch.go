package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pd2trade/pd2sync/pkg/pd2sync"
)

var (
	// watch flags
	watchInstallDir   string
	format            string
	watchIncludeTypes []string
	watchExcludeTypes []string
	watchPopups       []string
	noChat            bool
	includeRaw        bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Track the game window and chat log and output events",
	Long: `Track focus and bounds of the Diablo II window, arbitrate click-through
for overlay windows, and tail the chat log, printing every event.

Events are output as JSON Lines by default (one JSON object per line),
which makes it easy to process with tools like jq.

Examples:
  # Watch with default settings (auto-detect install directory)
  pd2sync watch

  # Specify install directory
  pd2sync watch --install-dir "C:\Program Files (x86)\Diablo II"

  # Only trade requests and whispers
  pd2sync watch --include-types trade-message,whisper-received

  # Skip the high-frequency bounds stream
  pd2sync watch --exclude-types window-moved

  # Make a 300x200 region of the "market" overlay interactive
  pd2sync watch --popup market=0,0,300,200

  # Window tracking only
  pd2sync watch --no-chat --format pretty

  # Pipe to jq for filtering
  pd2sync watch | jq 'select(.type == "trade-message")'`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchInstallDir, "install-dir", "d", "",
		"Diablo II install directory (auto-detected if not specified)")
	watchCmd.Flags().StringVarP(&format, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	watchCmd.Flags().StringSliceVar(&watchIncludeTypes, "include-types", nil,
		"Event types to include (comma-separated: trade-message,whisper-received,join)")
	watchCmd.Flags().StringSliceVar(&watchExcludeTypes, "exclude-types", nil,
		"Event types to exclude (comma-separated)")
	watchCmd.Flags().StringArrayVar(&watchPopups, "popup", nil,
		"Interactive overlay region id=left,top,right,bottom (repeatable)")
	watchCmd.Flags().BoolVar(&noChat, "no-chat", false,
		"Do not tail the chat log")
	watchCmd.Flags().BoolVar(&includeRaw, "raw", false,
		"Include raw chat log lines in output")

	registerCompletions(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	// Validate format
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format %q: must be one of: jsonl, pretty", format)
	}

	includes, excludes, err := typeFlags(watchIncludeTypes, watchExcludeTypes)
	if err != nil {
		return err
	}

	flagPopups, err := parsePopupFlags(watchPopups)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := pd2sync.New(
		pd2sync.WithConfig(cfg),
		pd2sync.WithInstallDir(installDirOrConfig(watchInstallDir, cfg)),
		pd2sync.WithIncludeRawLine(includeRaw),
		pd2sync.WithLogger(newLogger()),
	)
	defer engine.Close()

	for id, rects := range mergePopups(cfg.Popups, flagPopups) {
		engine.RegisterPopupRects(id, rects)
	}

	// Subscribe before starting so the initial focus and bounds are seen.
	events, cancel := engine.Subscribe(pd2sync.DefaultSubscriberBuffer,
		pd2sync.WithIncludeTypes(includes...),
		pd2sync.WithExcludeTypes(excludes...),
	)
	defer cancel()

	if err := engine.Start(ctx); err != nil {
		return err
	}

	if !noChat {
		path, err := engine.StartChatWatch(watchInstallDir)
		if err != nil {
			// Window tracking keeps running without chat.
			fmt.Fprintf(os.Stderr, "warning: chat log not watched: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "watching %s\n", path)
		}
	}

	// Output loop
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil // Channel closed
			}
			if err := OutputEvent(format, ev, os.Stdout); err != nil {
				return fmt.Errorf("output error: %w", err)
			}

		case <-ctx.Done():
			return nil
		}
	}
}
