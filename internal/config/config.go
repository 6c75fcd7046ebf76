// pattern: Functional Core

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Version is the only supported config schema version.
const Version = 1

// Config is the declarative window configuration, loaded once per process
// invocation and immutable afterwards.
type Config struct {
	Version int        `toml:"version"`
	Theme   string     `toml:"theme"`
	Tmux    TmuxConfig `toml:"tmux"`
}

type TmuxConfig struct {
	Windows []WindowSpec `toml:"windows"`
}

// WindowSpec is one configured tmux window. Exactly one launch mode must be
// populated: Direct (program/args) or Shell (shell/command).
type WindowSpec struct {
	Name    string   `toml:"name"`
	Program string   `toml:"program,omitempty"`
	Args    []string `toml:"args,omitempty"`
	Shell   []string `toml:"shell,omitempty"`
	Command string   `toml:"command,omitempty"`
}

// LaunchMode tags the two ways a window can start its program.
type LaunchMode int

const (
	LaunchDirect LaunchMode = iota
	LaunchShell
)

// Launch is the validated launch variant of a WindowSpec. Validation enforces
// the mode invariant at load time, so holders of a Launch never re-check it.
type Launch struct {
	Mode    LaunchMode
	Program string
	Args    []string
	Shell   []string
	Command string
}

// Argv returns the literal argument vector handed to tmux as the window's
// startup command. Direct mode passes program+args with no shell
// interpretation; shell mode appends the command string to the shell argv.
func (l Launch) Argv() []string {
	if l.Mode == LaunchDirect {
		return append([]string{l.Program}, l.Args...)
	}
	return append(append([]string{}, l.Shell...), l.Command)
}

// Executable returns the binary the window will exec, for PATH checks.
func (l Launch) Executable() string {
	if l.Mode == LaunchDirect {
		return l.Program
	}
	return l.Shell[0]
}

// ExecutableLabel names the field the executable came from, for diagnostics.
func (l Launch) ExecutableLabel() string {
	if l.Mode == LaunchDirect {
		return "program"
	}
	return "shell"
}

// UnsupportedVersionError reports a config file with the wrong schema version.
type UnsupportedVersionError struct {
	Found int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported config version (expected %d, found %d)", Version, e.Found)
}

// ErrEmptyWindowList reports a config with no window entries.
var ErrEmptyWindowList = errors.New("at least one tmux window must be configured")

// InvalidWindowError reports a window entry that fails validation.
type InvalidWindowError struct {
	Index  int
	Reason string
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("window[%d] %s", e.Index, e.Reason)
}

// Path resolves the config file location, honoring XDG_CONFIG_HOME.
func Path() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "seshmux", "config.toml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory for config path: %w", err)
	}

	return filepath.Join(home, ".config", "seshmux", "config.toml"), nil
}

// Load reads and validates the config file at path. Any failure is fatal to
// interactive startup; no partial Config is ever returned.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config at %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config at %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the schema version and every window entry.
func Validate(cfg Config) error {
	if cfg.Version != Version {
		return &UnsupportedVersionError{Found: cfg.Version}
	}

	if len(cfg.Tmux.Windows) == 0 {
		return ErrEmptyWindowList
	}

	for i, window := range cfg.Tmux.Windows {
		if strings.TrimSpace(window.Name) == "" {
			return &InvalidWindowError{Index: i, Reason: "name must be non-empty"}
		}
		if _, err := window.Launch(); err != nil {
			return &InvalidWindowError{Index: i, Reason: err.Error()}
		}
	}

	return nil
}

// Launch resolves the window's launch mode. A spec with both modes populated,
// or neither, is rejected.
func (w WindowSpec) Launch() (Launch, error) {
	directSelected := w.Program != "" || len(w.Args) > 0
	shellSelected := len(w.Shell) > 0 || w.Command != ""

	switch {
	case directSelected && shellSelected:
		return Launch{}, errors.New("must use exactly one launch mode (direct or shell), not both")
	case !directSelected && !shellSelected:
		return Launch{}, errors.New("must define either direct mode (program/args) or shell mode (shell/command)")
	}

	if directSelected {
		if strings.TrimSpace(w.Program) == "" {
			return Launch{}, errors.New("direct mode requires non-empty program")
		}
		return Launch{Mode: LaunchDirect, Program: w.Program, Args: w.Args}, nil
	}

	if len(w.Shell) == 0 || strings.TrimSpace(w.Shell[0]) == "" {
		return Launch{}, errors.New("shell mode requires shell[0] executable")
	}
	if strings.TrimSpace(w.Command) == "" {
		return Launch{}, errors.New("shell mode requires non-empty command")
	}

	return Launch{Mode: LaunchShell, Shell: w.Shell, Command: w.Command}, nil
}
