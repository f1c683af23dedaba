package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pd2trade/pd2sync/internal/logfinder"
	"github.com/pd2trade/pd2sync/internal/tailer"
)

var (
	// gamelog flags
	gamelogInstallDir string
	gamelogFromStart  bool
)

var gamelogCmd = &cobra.Command{
	Use:   "gamelog",
	Short: "Follow the game-event log",
	Long: `Follow pd2_game.log next to the chat log and print new lines as they
are written. The file is reopened when the game truncates or recreates it.`,
	RunE: runGamelog,
}

func init() {
	gamelogCmd.Flags().StringVarP(&gamelogInstallDir, "install-dir", "d", "",
		"Diablo II install directory (auto-detected if not specified)")
	gamelogCmd.Flags().BoolVar(&gamelogFromStart, "from-start", false,
		"Print existing content before following")

	registerCompletions(gamelogCmd)
}

func runGamelog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir, err := logfinder.FindInstallDir(installDirOrConfig(gamelogInstallDir, cfg))
	if err != nil {
		return err
	}
	path, err := logfinder.GameLogPath(dir)
	if err != nil {
		return err
	}

	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tcfg := tailer.DefaultConfig()
	tcfg.FromStart = gamelogFromStart
	follower, err := tailer.Follow(ctx, path, tcfg)
	if err != nil {
		return err
	}
	defer follower.Stop()

	if verbose {
		fmt.Fprintf(os.Stderr, "following %s\n", path)
	}

	for {
		select {
		case line, ok := <-follower.Lines():
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stdout, line.Text)

		case err, ok := <-follower.Errors():
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)

		case <-ctx.Done():
			return nil
		}
	}
}
