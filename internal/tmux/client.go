// pattern: Imperative Shell

package tmux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrSessionMissing reports an operation against a session that does not
// exist on the tmux server.
var ErrSessionMissing = errors.New("tmux session does not exist")

// Executor runs the tmux binary with the given arguments and returns its
// combined output.
type Executor func(ctx context.Context, args ...string) (string, error)

// Window describes one window to open in a new session.
type Window struct {
	Name string
	Argv []string
}

// SpawnError reports a window that failed to spawn while building a session.
// Earlier windows are left running so the user can inspect the partial
// session.
type SpawnError struct {
	Index  int
	Window string
	Err    error
}

func (e SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn window %d (%s): %v", e.Index, e.Window, e.Err)
}

func (e SpawnError) Unwrap() error { return e.Err }

// Client wraps the tmux commands used to manage per-worktree sessions.
type Client struct {
	exec       Executor
	insideTmux bool
}

// NewClient creates a Client that shells out to the tmux binary. Whether the
// process is already inside a tmux client is read from $TMUX once, at
// construction.
func NewClient() *Client {
	return &Client{exec: runTmux, insideTmux: os.Getenv("TMUX") != ""}
}

// NewClientWithExecutor creates a Client with the given executor (for testing).
func NewClientWithExecutor(exec Executor, insideTmux bool) *Client {
	return &Client{exec: exec, insideTmux: insideTmux}
}

func runTmux(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("tmux %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(output)), err)
	}
	return string(output), nil
}

// SessionExists reports whether a session with exactly this name exists.
func (c *Client) SessionExists(ctx context.Context, name string) bool {
	_, err := c.exec(ctx, "has-session", "-t", "="+name)
	return err == nil
}

// CreateSession builds a detached session named name with one window per
// entry in windows, all rooted at dir. The first window keeps focus; later
// windows are created in the background. Creating a session that already
// exists is a no-op, so re-attaching to a live worktree is always safe.
//
// On a spawn failure the earlier windows are left as they are and the error
// identifies the window that failed.
func (c *Client) CreateSession(ctx context.Context, name, dir string, windows []Window) error {
	if len(windows) == 0 {
		return fmt.Errorf("session %q needs at least one window", name)
	}
	if c.SessionExists(ctx, name) {
		return nil
	}

	first := windows[0]
	args := []string{"new-session", "-d", "-s", name, "-c", dir, "-n", first.Name}
	args = append(args, first.Argv...)
	if _, err := c.exec(ctx, args...); err != nil {
		return SpawnError{Index: 0, Window: first.Name, Err: err}
	}

	for i, win := range windows[1:] {
		args := []string{"new-window", "-d", "-t", name + ":", "-c", dir, "-n", win.Name}
		args = append(args, win.Argv...)
		if _, err := c.exec(ctx, args...); err != nil {
			return SpawnError{Index: i + 1, Window: win.Name, Err: err}
		}
	}
	return nil
}

// KillSession destroys a session and every process in it.
func (c *Client) KillSession(ctx context.Context, name string) error {
	if !c.SessionExists(ctx, name) {
		return ErrSessionMissing
	}
	_, err := c.exec(ctx, "kill-session", "-t", "="+name)
	return err
}

// AttachCommand returns the command that hands the terminal over to a
// session: attach-session normally, switch-client when already inside a
// tmux client, where nesting attach would fail.
func (c *Client) AttachCommand(name string) *exec.Cmd {
	if c.insideTmux {
		return exec.Command("tmux", "switch-client", "-t", "="+name)
	}
	return exec.Command("tmux", "attach-session", "-t", "="+name)
}
