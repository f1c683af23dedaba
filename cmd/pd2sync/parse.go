package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pd2trade/pd2sync/pkg/pd2sync"
)

var (
	// parse flags
	parseIncludeTypes []string
	parseExcludeTypes []string
	parseFormat       string
	parseRaw          bool
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Parse chat log files (batch mode)",
	Long: `Parse chat log files from start to end and output events.

Unlike 'watch', this command processes existing content without following
the file. Files are read in the order given.

Examples:
  # Parse a chat log
  pd2sync parse pd2_chat.log

  # Only trade requests
  pd2sync parse --include-types trade-message pd2_chat.log

  # Human-readable output
  pd2sync parse --format pretty pd2_chat.log

  # Pipe to jq for filtering
  pd2sync parse pd2_chat.log | jq 'select(.type == "join")'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringSliceVar(&parseIncludeTypes, "include-types", nil,
		"Event types to include (comma-separated: trade-message,whisper-received,join)")
	parseCmd.Flags().StringSliceVar(&parseExcludeTypes, "exclude-types", nil,
		"Event types to exclude (comma-separated)")
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "jsonl",
		"Output format: jsonl, pretty")
	parseCmd.Flags().BoolVar(&parseRaw, "raw", false,
		"Include raw log lines in output")

	registerCompletions(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	// Validate format
	if !ValidFormats[parseFormat] {
		return fmt.Errorf("invalid format %q: must be one of: jsonl, pretty", parseFormat)
	}

	includes, excludes, err := typeFlags(parseIncludeTypes, parseExcludeTypes)
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []pd2sync.ParseOption{
		pd2sync.WithParseFilter(includes, excludes),
		pd2sync.WithParseIncludeRawLine(parseRaw),
	}

	for _, path := range args {
		for ev, err := range pd2sync.ParseFile(ctx, path, opts...) {
			if err != nil {
				// Ctrl+C: exit silently
				if errors.Is(err, context.Canceled) && ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("parse error: %w", err)
			}

			if err := OutputEvent(parseFormat, ev, os.Stdout); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}
	}

	return nil
}
