// pattern: Imperative Shell

package worktree

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxNameLength caps worktree names so branch refs and tmux session names
// stay manageable.
const MaxNameLength = 48

// validNameRe matches valid worktree names: must start with a lowercase
// letter or digit, followed by lowercase letters, digits, hyphens, or
// underscores.
var validNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// GitRunner executes a git command in the given directory and returns its
// combined output.
type GitRunner func(ctx context.Context, dir string, args ...string) (string, error)

// Git wraps the git subcommands used to manage worktrees.
type Git struct {
	run GitRunner
}

// NewGit creates a Git that shells out to the git binary.
func NewGit() *Git {
	return &Git{run: runGit}
}

// NewGitWithRunner creates a Git with the given runner (for testing).
func NewGitWithRunner(run GitRunner) *Git {
	return &Git{run: run}
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(output)), err)
	}
	return string(output), nil
}

// UnmergedBranchError reports a branch delete refused because the branch has
// commits not reachable from its upstream.
type UnmergedBranchError struct {
	Branch string
}

func (e UnmergedBranchError) Error() string {
	return fmt.Sprintf("branch %q is not fully merged", e.Branch)
}

// ValidateName checks that a name is usable as both a branch name and a tmux
// session name.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("name too long (max %d characters)", MaxNameLength)
	}
	if !validNameRe.MatchString(name) {
		return fmt.Errorf("invalid name %q: must start with a lowercase letter or digit and contain only a-z 0-9 - _", name)
	}
	return nil
}

// RepoRoot resolves the top-level directory of the repository containing dir.
func (g *Git) RepoRoot(ctx context.Context, dir string) (string, error) {
	output, err := g.run(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return strings.TrimSpace(output), nil
}

// HasCommits reports whether the repository has at least one commit.
// Worktrees branch from HEAD, so an unborn branch cannot host one.
func (g *Git) HasCommits(ctx context.Context, repoRoot string) bool {
	_, err := g.run(ctx, repoRoot, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// CurrentBranch returns the branch checked out at repoRoot.
func (g *Git) CurrentBranch(ctx context.Context, repoRoot string) (string, error) {
	output, err := g.run(ctx, repoRoot, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Dir returns the path where a worktree named name would live.
// Worktrees are stored under <repoRoot>/worktrees/<name>.
func Dir(repoRoot, name string) string {
	return filepath.Join(repoRoot, "worktrees", name)
}

// Create adds a worktree at path on a new branch named name, branched from
// the current HEAD.
func (g *Git) Create(ctx context.Context, repoRoot, name, path string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := g.run(ctx, repoRoot, "worktree", "add", "-b", name, path, "HEAD")
	return err
}

// Remove detaches a worktree from the repository and deletes its directory.
// Without force, git refuses when the worktree has uncommitted changes.
func (g *Git) Remove(ctx context.Context, repoRoot, path string, force bool) error {
	args := []string{"worktree", "remove"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, path)
	_, err := g.run(ctx, repoRoot, args...)
	return err
}

// DeleteBranch deletes the branch created alongside a worktree. Without
// force, an unmerged branch is reported as UnmergedBranchError so the caller
// can offer a forced retry.
func (g *Git) DeleteBranch(ctx context.Context, repoRoot, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	output, err := g.run(ctx, repoRoot, "branch", flag, name)
	if err != nil {
		if strings.Contains(output, "not fully merged") {
			return UnmergedBranchError{Branch: name}
		}
		return err
	}
	return nil
}

// PathExists reports whether a worktree path is still registered with git.
// The registry can drift when a worktree is removed by hand.
func (g *Git) PathExists(ctx context.Context, repoRoot, path string) (bool, error) {
	output, err := g.run(ctx, repoRoot, "worktree", "list", "--porcelain")
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(output, "\n") {
		rest, ok := strings.CutPrefix(line, "worktree ")
		if ok && rest == path {
			return true, nil
		}
	}
	return false, nil
}
