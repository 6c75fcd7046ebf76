// pattern: Imperative Shell

package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/Skarian/seshmux/internal/config"
)

// git worktree landed in 2.5; prune --expire fixes we rely on are older
// than anything still in the wild.
const (
	minGitMajor = 2
	minGitMinor = 5
)

// Doctor probes the environment seshmux needs and reports what it finds.
type Doctor struct {
	goos       string
	lookPath   func(file string) (string, error)
	run        func(ctx context.Context, name string, args ...string) (string, error)
	configPath func() (string, error)
}

// New creates a Doctor that inspects the real environment.
func New() *Doctor {
	return &Doctor{
		goos:       runtime.GOOS,
		lookPath:   exec.LookPath,
		run:        runCommand,
		configPath: config.Path,
	}
}

// NewAt creates a Doctor that checks the config file at the given path
// instead of the default location.
func NewAt(configPath string) *Doctor {
	d := New()
	d.configPath = func() (string, error) { return configPath, nil }
	return d
}

// NewWithProbes creates a Doctor with injected probes (for testing).
func NewWithProbes(
	goos string,
	lookPath func(string) (string, error),
	run func(context.Context, string, ...string) (string, error),
	configPath func() (string, error),
) *Doctor {
	return &Doctor{goos: goos, lookPath: lookPath, run: run, configPath: configPath}
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

// Run executes every check and returns the collected report. Checks keep
// going past failures so one run shows everything that needs fixing.
func (d *Doctor) Run(ctx context.Context) Report {
	var report Report

	report.add(d.checkOS())
	gitOK := d.checkGit(ctx, &report)
	if gitOK {
		d.checkGitWorktree(ctx, &report)
	}
	d.checkTmux(ctx, &report)
	d.checkConfig(&report)

	return report
}

func (d *Doctor) checkOS() Check {
	switch d.goos {
	case "linux", "darwin":
		return pass("operating system", d.goos)
	default:
		return fail("operating system", fmt.Sprintf("%s is not supported (need linux or darwin)", d.goos))
	}
}

func (d *Doctor) checkGit(ctx context.Context, report *Report) bool {
	path, err := d.lookPath("git")
	if err != nil {
		report.add(fail("git binary", "git not found in PATH"))
		return false
	}
	version, err := d.run(ctx, "git", "--version")
	if err != nil {
		report.add(fail("git binary", fmt.Sprintf("%s: git --version failed: %v", path, err)))
		return false
	}
	report.add(pass("git binary", fmt.Sprintf("%s (%s)", path, version)))
	return true
}

func (d *Doctor) checkGitWorktree(ctx context.Context, report *Report) {
	version, err := d.run(ctx, "git", "--version")
	if err != nil {
		report.add(fail("git worktree support", fmt.Sprintf("git --version failed: %v", err)))
		return
	}
	major, minor, ok := parseGitVersion(version)
	if !ok {
		report.add(fail("git worktree support", fmt.Sprintf("could not parse %q", version)))
		return
	}
	if major < minGitMajor || (major == minGitMajor && minor < minGitMinor) {
		report.add(fail("git worktree support", fmt.Sprintf("git %d.%d is too old (need %d.%d+)", major, minor, minGitMajor, minGitMinor)))
		return
	}
	report.add(pass("git worktree support", fmt.Sprintf("git %d.%d", major, minor)))
}

func (d *Doctor) checkTmux(ctx context.Context, report *Report) {
	path, err := d.lookPath("tmux")
	if err != nil {
		report.add(fail("tmux binary", "tmux not found in PATH"))
		return
	}
	version, err := d.run(ctx, "tmux", "-V")
	if err != nil {
		report.add(fail("tmux binary", fmt.Sprintf("%s: tmux -V failed: %v", path, err)))
		return
	}
	report.add(pass("tmux binary", fmt.Sprintf("%s (%s)", path, version)))
}

func (d *Doctor) checkConfig(report *Report) {
	path, err := d.configPath()
	if err != nil {
		report.add(fail("config path", err.Error()))
		return
	}
	report.add(pass("config path", path))

	if _, err := os.Stat(path); err != nil {
		report.add(fail("config file", fmt.Sprintf("%s does not exist", path)))
		return
	}
	report.add(pass("config file", "present"))

	cfg, err := config.Load(path)
	if err != nil {
		report.add(fail("config contents", err.Error()))
		return
	}
	report.add(pass("config contents", fmt.Sprintf("%d window(s) configured", len(cfg.Tmux.Windows))))

	d.checkWindowPrograms(report, &cfg)
}

func (d *Doctor) checkWindowPrograms(report *Report, cfg *config.Config) {
	var missing []string
	for _, win := range cfg.Tmux.Windows {
		launch, err := win.Launch()
		if err != nil {
			// Load already validated; belt and braces.
			missing = append(missing, win.Name)
			continue
		}
		if _, err := d.lookPath(launch.Executable()); err != nil {
			missing = append(missing, fmt.Sprintf("%s (%s)", win.Name, launch.ExecutableLabel()))
		}
	}
	if len(missing) > 0 {
		report.add(fail("window programs", "not in PATH: "+strings.Join(missing, ", ")))
		return
	}
	report.add(pass("window programs", "all launch targets found in PATH"))
}

// parseGitVersion extracts major.minor from "git version 2.39.5" style
// output, tolerating suffixes like "(Apple Git-146)".
func parseGitVersion(output string) (major, minor int, ok bool) {
	fields := strings.Fields(output)
	var raw string
	for _, field := range fields {
		if field != "" && field[0] >= '0' && field[0] <= '9' {
			raw = field
			break
		}
	}
	parts := strings.Split(raw, ".")
	if len(parts) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}
