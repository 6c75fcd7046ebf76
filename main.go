// pattern: Imperative Shell
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/Skarian/seshmux/internal/cli"
	"github.com/Skarian/seshmux/internal/config"
	"github.com/Skarian/seshmux/internal/logging"
	"github.com/Skarian/seshmux/internal/registry"
	"github.com/Skarian/seshmux/internal/tmux"
	"github.com/Skarian/seshmux/internal/tui"
	"github.com/Skarian/seshmux/internal/worktree"
)

var version = "dev"

func main() {
	// Stop parsing flags after the first non-flag arg (the subcommand),
	// so that --help after a subcommand is handled by the subcommand.
	flag.CommandLine.SetInterspersed(false)

	configDir := flag.StringP("config-dir", "c", "", "config directory (default: ~/.config/seshmux)")
	diagnostics := flag.Bool("diagnostics", false, "write a diagnostics log for this run")

	// Override flag.Usage before Parse so --help uses the CLI app's help
	flag.Usage = func() {
		app := cli.BuildApp(version, *configDir)
		app.PrintHelp(os.Stderr)
		flag.PrintDefaults()
	}

	flag.Parse()

	// Diagnostics cover every subcommand, so the sink comes up before
	// dispatch.
	var logs logging.LoggerProvider = logging.NewNop()
	logPath := ""
	if *diagnostics {
		logPath = logging.DiagnosticsPath(cli.ResolveConfigDir(*configDir), time.Now())
		manager, err := logging.NewManager(logging.Config{
			FilePath: logPath,
			Level:    "debug",
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize diagnostics: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = manager.Close() }()
		logs = manager
		fmt.Fprintf(os.Stderr, "Diagnostics enabled: %s\n", logPath)
	}

	cliLogger := logs.For("cli")
	cliLogger.Info("dispatching", "version", version, "args", strings.Join(flag.Args(), " "))

	app := cli.BuildApp(version, *configDir)
	launch, err := app.Execute(flag.Args())
	if err != nil {
		cliLogger.Error("command failed", "error", err)
		fatal(logPath, "%v", err)
	}
	if launch {
		runTUI(*configDir, logs, logPath)
	}
	cliLogger.Info("done")
}

// configFilePath resolves the config.toml location for the given directory
// override.
func configFilePath(configDir string) string {
	return filepath.Join(cli.ResolveConfigDir(configDir), "config.toml")
}

// diagnosticsHint tells the user where the log went, or how to get one.
func diagnosticsHint(logPath string) string {
	if logPath != "" {
		return fmt.Sprintf("Diagnostics were written to %s\n", logPath)
	}
	return "Rerun with --diagnostics to capture a log for a bug report.\n"
}

// fatal prints the message plus the diagnostics hint and exits non-zero.
func fatal(logPath, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	fmt.Fprint(os.Stderr, diagnosticsHint(logPath))
	os.Exit(1)
}

// runTUI launches the interactive worktree manager.
func runTUI(configDir string, logs logging.LoggerProvider, logPath string) {
	// A panic inside the TUI must not leave the terminal in a raw state
	// with no explanation.
	defer func() {
		if r := recover(); r != nil {
			logs.For("app").Error("panic", "value", fmt.Sprint(r))
			fmt.Fprintf(os.Stderr, "seshmux crashed: %v\n", r)
			fmt.Fprint(os.Stderr, diagnosticsHint(logPath))
			os.Exit(1)
		}
	}()

	cfg, err := config.Load(configFilePath(configDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Run \"seshmux doctor\" to check your setup.\n")
		fmt.Fprint(os.Stderr, diagnosticsHint(logPath))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	git := worktree.NewGit()
	cwd, err := os.Getwd()
	if err != nil {
		fatal(logPath, "%v", err)
	}
	repoRoot, err := git.RepoRoot(ctx, cwd)
	if err != nil {
		fatal(logPath, "seshmux must be run inside a git repository.")
	}
	if !git.HasCommits(ctx, repoRoot) {
		fatal(logPath, "the repository has no commits yet; worktrees branch from HEAD.")
	}

	appLogger := logs.For("app")
	appLogger.Info("starting", "version", version, "repo", repoRoot)

	model := tui.NewModel(
		&cfg,
		registry.Open(repoRoot),
		git,
		tmux.NewClient(),
		repoRoot,
		logs,
	)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		appLogger.Error("exited with error", "error", err)
		fatal(logPath, "running program: %v", err)
	}

	appLogger.Info("stopped")
}
