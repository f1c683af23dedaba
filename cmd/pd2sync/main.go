package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pd2trade/pd2sync/internal/config"
)

var (
	// Version information (set by ldflags)
	version = "dev"
	commit  = "none"
	date    = "unknown"

	// Global flags
	verbose    bool
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pd2sync",
	Short: "Project Diablo 2 overlay sync engine",
	Long: `pd2sync keeps trade overlay windows in sync with the Diablo II game window.

It tracks focus and bounds of the game window, toggles click-through on
overlay windows as the cursor moves over interactive regions, and tails
the in-game chat log for whispers, trade requests and joins. Events are
output as JSON Lines for easy processing with other tools.

This is an unofficial tool and is not affiliated with Blizzard
Entertainment or the Project Diablo 2 team.`,
	SilenceUsage: true, // Don't show usage on error
}

func init() {
	// Global flags (inherited by all subcommands)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default $XDG_CONFIG_HOME/pd2sync/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(locateCmd)
	rootCmd.AddCommand(boundsCmd)
	rootCmd.AddCommand(gamelogCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pd2sync %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

// newLogger returns a stderr text logger, at debug level when --verbose is set.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadConfig loads the file named by --config, or the default location.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// installDirOrConfig prefers an explicit flag value over the config file.
func installDirOrConfig(flagValue string, cfg *config.Config) string {
	if flagValue != "" {
		return flagValue
	}
	return cfg.InstallDir
}
