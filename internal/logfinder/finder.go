// Package logfinder locates the Diablo II install directory and the
// Project Diablo 2 log files beneath it.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// EnvInstallDir is the environment variable name for specifying the install directory.
const EnvInstallDir = "PD2SYNC_INSTALL_DIR"

// Log file layout relative to the install directory.
const (
	LogSubdir   = "ProjectD2/pd2logs"
	ChatLogName = "pd2_chat.log"
	GameLogName = "pd2_game.log"
	logDirPerm  = 0o755
	logFilePerm = 0o644
)

// Sentinel errors.
var (
	ErrInstallDirNotFound = errors.New("install directory not found")
	ErrLogFileUnavailable = errors.New("log file cannot be created")
)

// DefaultInstallDirs returns candidate install directories in priority order.
// The list is OS-specific; see commonInstallDirs.
func DefaultInstallDirs() []string {
	return commonInstallDirs()
}

// FindInstallDir returns the game install directory.
//
// Priority:
//  1. explicit (if non-empty and existing)
//  2. PD2SYNC_INSTALL_DIR environment variable
//  3. Registry (Windows only)
//  4. DefaultInstallDirs()
//
// The first existing directory wins. Returns ErrInstallDirNotFound if no
// candidate exists. The returned path has symlinks resolved for consistency.
func FindInstallDir(explicit string) (string, error) {
	candidates := make([]string, 0, 16)
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	if envDir := os.Getenv(EnvInstallDir); envDir != "" {
		candidates = append(candidates, envDir)
	}
	candidates = append(candidates, registryInstallDirs()...)
	candidates = append(candidates, DefaultInstallDirs()...)

	for _, dir := range candidates {
		if resolved := resolveDir(dir); resolved != "" {
			return resolved, nil
		}
	}

	if explicit != "" {
		return "", fmt.Errorf("%w: %s does not exist and no fallback was found", ErrInstallDirNotFound, explicit)
	}
	return "", ErrInstallDirNotFound
}

// LogDir returns the log directory for an install directory.
func LogDir(installDir string) string {
	return filepath.Join(installDir, filepath.FromSlash(LogSubdir))
}

// ChatLogPath returns the chat log path beneath installDir, creating the
// log directory, the chat log and its sibling game log when absent.
func ChatLogPath(installDir string) (string, error) {
	if err := EnsureLogFiles(installDir); err != nil {
		return "", err
	}
	return filepath.Join(LogDir(installDir), ChatLogName), nil
}

// GameLogPath returns the game-event log path beneath installDir, creating
// the log files when absent.
func GameLogPath(installDir string) (string, error) {
	if err := EnsureLogFiles(installDir); err != nil {
		return "", err
	}
	return filepath.Join(LogDir(installDir), GameLogName), nil
}

// EnsureLogFiles creates the log directory and empty log files that do not
// exist yet. Existing files are left untouched.
func EnsureLogFiles(installDir string) error {
	dir := LogDir(installDir)
	if err := os.MkdirAll(dir, logDirPerm); err != nil {
		return fmt.Errorf("%w: creating %s: %v", ErrLogFileUnavailable, dir, err)
	}
	for _, name := range []string{ChatLogName, GameLogName} {
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, logFilePerm)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrLogFileUnavailable, path, err)
		}
		f.Close()
	}
	return nil
}

// resolveDir resolves symlinks and validates the directory.
// Returns the resolved path if it is an existing directory, empty string otherwise.
func resolveDir(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}

	// Resolve symlinks (works with Windows Junctions in Go 1.20+)
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}
	return resolved
}
