//go:build !windows

package logfinder

import (
	"os"
	"path/filepath"
)

func commonInstallDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil
	}
	return []string{
		filepath.Join(home, "Games", "Diablo II"),
		filepath.Join(home, "Games", "project-diablo-2"),
		filepath.Join(home, ".wine", "drive_c", "Program Files (x86)", "Diablo II"),
	}
}

// registryInstallDirs is empty off Windows; Wine prefixes are covered by
// commonInstallDirs.
func registryInstallDirs() []string {
	return nil
}
