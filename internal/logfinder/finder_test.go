package logfinder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func evalDir(t *testing.T, dir string) string {
	t.Helper()
	// Resolve symlinks in expected path for comparison (e.g., /var -> /private/var on macOS)
	want, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return dir
	}
	return want
}

func TestFindInstallDir_Explicit(t *testing.T) {
	dir := t.TempDir()
	// Explicit should take priority over env
	t.Setenv(EnvInstallDir, t.TempDir())

	got, err := FindInstallDir(dir)
	if err != nil {
		t.Fatalf("FindInstallDir() error = %v", err)
	}
	if want := evalDir(t, dir); got != want {
		t.Errorf("FindInstallDir() = %v, want %v", got, want)
	}
}

func TestFindInstallDir_EnvVar(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvInstallDir, dir)

	got, err := FindInstallDir("")
	if err != nil {
		t.Fatalf("FindInstallDir() error = %v", err)
	}
	if want := evalDir(t, dir); got != want {
		t.Errorf("FindInstallDir() = %v, want %v", got, want)
	}
}

func TestFindInstallDir_ExplicitMissingFallsThrough(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvInstallDir, dir)

	got, err := FindInstallDir(filepath.Join(dir, "nonexistent"))
	if err != nil {
		t.Fatalf("FindInstallDir() error = %v", err)
	}
	if want := evalDir(t, dir); got != want {
		t.Errorf("FindInstallDir() = %v, want %v", got, want)
	}
}

func TestFindInstallDir_NotFound(t *testing.T) {
	t.Setenv(EnvInstallDir, "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", t.TempDir())

	// Registry and common install paths may exist on a developer machine.
	if len(registryInstallDirs()) > 0 {
		t.Skip("registry reports an install directory")
	}
	for _, dir := range DefaultInstallDirs() {
		if resolveDir(dir) != "" {
			t.Skipf("common install directory %s exists", dir)
		}
	}

	_, err := FindInstallDir("/nonexistent/path")
	if !errors.Is(err, ErrInstallDirNotFound) {
		t.Errorf("FindInstallDir() error = %v, want %v", err, ErrInstallDirNotFound)
	}
}

func TestChatLogPath_CreatesFiles(t *testing.T) {
	install := t.TempDir()

	path, err := ChatLogPath(install)
	if err != nil {
		t.Fatalf("ChatLogPath() error = %v", err)
	}
	if want := filepath.Join(install, "ProjectD2", "pd2logs", ChatLogName); path != want {
		t.Errorf("ChatLogPath() = %v, want %v", path, want)
	}

	for _, name := range []string{ChatLogName, GameLogName} {
		info, err := os.Stat(filepath.Join(LogDir(install), name))
		if err != nil {
			t.Fatalf("%s not created: %v", name, err)
		}
		if info.Size() != 0 {
			t.Errorf("%s size = %d, want 0", name, info.Size())
		}
	}
}

func TestChatLogPath_KeepsExistingContent(t *testing.T) {
	install := t.TempDir()
	if err := os.MkdirAll(LogDir(install), 0755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(LogDir(install), ChatLogName)
	if err := os.WriteFile(existing, []byte("2,From a: b\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ChatLogPath(install); err != nil {
		t.Fatalf("ChatLogPath() error = %v", err)
	}
	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "2,From a: b\n" {
		t.Errorf("existing chat log was modified: %q", data)
	}
}

func TestGameLogPath(t *testing.T) {
	install := t.TempDir()

	path, err := GameLogPath(install)
	if err != nil {
		t.Fatalf("GameLogPath() error = %v", err)
	}
	if filepath.Base(path) != GameLogName {
		t.Errorf("GameLogPath() = %v, want base %v", path, GameLogName)
	}
}

func TestEnsureLogFiles_Unwritable(t *testing.T) {
	// A regular file where the install directory should be.
	install := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(install, nil, 0644); err != nil {
		t.Fatal(err)
	}

	err := EnsureLogFiles(install)
	if !errors.Is(err, ErrLogFileUnavailable) {
		t.Errorf("EnsureLogFiles() error = %v, want %v", err, ErrLogFileUnavailable)
	}
}

func TestResolveDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if resolveDir(dir) == "" {
		t.Error("resolveDir() = empty, want non-empty for existing dir")
	}
	if resolveDir(file) != "" {
		t.Error("resolveDir() = non-empty, want empty for regular file")
	}
	if resolveDir("/nonexistent/path") != "" {
		t.Error("resolveDir() = non-empty, want empty for nonexistent path")
	}
}
