package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewManager_RequiresFilePath(t *testing.T) {
	_, err := NewManager(Config{})
	if err == nil {
		t.Fatal("NewManager() without FilePath should fail")
	}
}

func TestManager_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagnostics", "seshmux-test.log")
	mgr, err := NewManager(Config{FilePath: path, Level: "debug"})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer mgr.Close()

	mgr.For("registry").Info("record inserted", "name", "feature")
	if err := mgr.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	line := strings.TrimSpace(string(data))

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	if entry["msg"] != "record inserted" {
		t.Errorf("msg = %v, want %q", entry["msg"], "record inserted")
	}
	if entry["name"] != "feature" {
		t.Errorf("name field = %v, want %q", entry["name"], "feature")
	}
	if entry["logger"] != "registry" {
		t.Errorf("logger = %v, want %q", entry["logger"], "registry")
	}
}

func TestManager_LevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seshmux.log")
	mgr, err := NewManager(Config{FilePath: path, Level: "warn"})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer mgr.Close()

	logger := mgr.For("flow")
	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")
	_ = mgr.Sync()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "dropped") {
		t.Errorf("below-level entries were written:\n%s", data)
	}
	if !strings.Contains(string(data), "kept") {
		t.Errorf("warn entry missing:\n%s", data)
	}
}

func TestManager_ScopedLoggersAreCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seshmux.log")
	mgr, err := NewManager(Config{FilePath: path})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	defer mgr.Close()

	if mgr.For("tmux") != mgr.For("tmux") {
		t.Error("For() returned distinct loggers for the same scope")
	}
	if mgr.For("tmux") == mgr.For("registry") {
		t.Error("For() returned the same logger for different scopes")
	}
}

func TestScopedLogger_With(t *testing.T) {
	mgr := NewTestLogManager()
	logger := mgr.For("flow").With("worktree", "feature")
	logger.Info("step entered", "step", "confirm")

	entries := mgr.Entries()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["worktree"] != "feature" {
		t.Errorf("worktree field = %v, want %q", fields["worktree"], "feature")
	}
	if fields["step"] != "confirm" {
		t.Errorf("step field = %v, want %q", fields["step"], "confirm")
	}
}

func TestNopLogger_DoesNotPanic(t *testing.T) {
	logger := NopLogger()
	logger.Debug("a")
	logger.Info("b", "k", "v")
	logger.Warn("c")
	logger.Error("d")
	if got := logger.With("k", "v"); got != logger {
		t.Error("With() on a nop logger should return the same logger")
	}
}

func TestNewNop_ProviderScopes(t *testing.T) {
	provider := NewNop()
	logger := provider.For("registry")
	if logger.Scope() != "registry" {
		t.Errorf("Scope() = %q, want %q", logger.Scope(), "registry")
	}
	logger.Info("discarded")
}

func TestDiagnosticsPath(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	got := DiagnosticsPath("/home/user/.config/seshmux", now)
	want := "/home/user/.config/seshmux/diagnostics/seshmux-20250314-092653.log"
	if got != want {
		t.Errorf("DiagnosticsPath() = %q, want %q", got, want)
	}
}
