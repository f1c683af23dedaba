package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pd2trade/pd2sync/internal/logfinder"
)

var (
	// locate flags
	locateInstallDir string
	locateAuto       bool
)

var locateCmd = &cobra.Command{
	Use:   "locate",
	Short: "Print the install directory and log file paths",
	Long: `Resolve the Diablo II install directory and print it together with the
chat and game-event log paths. Missing log files are created.

Resolution order: --install-dir, install_dir from the config file,
$PD2SYNC_INSTALL_DIR, the registry (Windows), then common locations.
With --auto, explicit settings are ignored.`,
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().StringVarP(&locateInstallDir, "install-dir", "d", "",
		"Diablo II install directory to check")
	locateCmd.Flags().BoolVar(&locateAuto, "auto", false,
		"Ignore explicit settings and auto-detect")

	registerCompletions(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	explicit := ""
	if !locateAuto {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		explicit = installDirOrConfig(locateInstallDir, cfg)
	}
	return locate(explicit, os.Stdout)
}

func locate(explicit string, w io.Writer) error {
	dir, err := logfinder.FindInstallDir(explicit)
	if err != nil {
		return err
	}
	chat, err := logfinder.ChatLogPath(dir)
	if err != nil {
		return err
	}
	game, err := logfinder.GameLogPath(dir)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "install_dir: %s\n", dir)
	fmt.Fprintf(w, "chat_log:    %s\n", chat)
	fmt.Fprintf(w, "game_log:    %s\n", game)
	return nil
}
