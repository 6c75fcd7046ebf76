// pattern: Functional Core
package cli

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
)

// Command represents a single CLI command with its metadata and handler.
type Command struct {
	Name    string
	Summary string
	Usage   string
	Run     func(args []string) error
}

// App represents the top-level CLI application.
type App struct {
	commands map[string]*Command
	version  string
}

// NewApp creates a new CLI application with the given version.
func NewApp(version string) *App {
	return &App{
		commands: make(map[string]*Command),
		version:  version,
	}
}

// AddCommand registers a top-level command.
func (a *App) AddCommand(cmd *Command) {
	a.commands[cmd.Name] = cmd
}

// Execute dispatches the CLI arguments to the appropriate command. The
// boolean reports whether the TUI should be launched instead; a command's
// error is returned to the caller, which owns exit codes.
func (a *App) Execute(args []string) (bool, error) {
	// No args: launch TUI
	if len(args) == 0 {
		return true, nil
	}

	cmdName := args[0]
	cmd, ok := a.commands[cmdName]
	if !ok {
		a.PrintHelp(os.Stderr)
		return false, fmt.Errorf("unknown command %q", cmdName)
	}

	// Per-command help flags
	for _, arg := range args[1:] {
		if arg == "--help" || arg == "-h" {
			fmt.Fprintf(os.Stderr, "%s\n", cmd.Usage)
			return false, nil
		}
	}
	return false, cmd.Run(args[1:])
}

// PrintHelp prints the top-level help text.
func (a *App) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: seshmux [options] [command]\n\n")
	fmt.Fprintf(w, "Commands:\n")

	names := slices.Sorted(maps.Keys(a.commands))
	for _, name := range names {
		cmd := a.commands[name]
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintf(w, "  %-10s %s\n", "(none)", "Launch interactive worktree manager")

	fmt.Fprintf(w, "\nUse \"seshmux <command> --help\" for command details.\n\n")
	fmt.Fprintf(w, "Options:\n")
}
