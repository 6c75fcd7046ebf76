// pattern: Imperative Shell

package worktree

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// GitignoreHasWorktrees reports whether the repository's .gitignore already
// ignores the worktrees directory. A missing .gitignore counts as no.
func GitignoreHasWorktrees(repoRoot string) (bool, error) {
	raw, err := os.ReadFile(filepath.Join(repoRoot, ".gitignore"))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(string(raw), "\n") {
		switch strings.TrimSpace(line) {
		case "worktrees/", "/worktrees/":
			return true, nil
		}
	}
	return false, nil
}

// EnsureGitignoreWorktrees appends a worktrees/ entry to .gitignore, creating
// the file when it does not exist. A no-op when the entry is already there.
func EnsureGitignoreWorktrees(repoRoot string) error {
	has, err := GitignoreHasWorktrees(repoRoot)
	if err != nil || has {
		return err
	}

	path := filepath.Join(repoRoot, ".gitignore")
	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	content := string(raw)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "worktrees/\n"
	return os.WriteFile(path, []byte(content), 0o644)
}
