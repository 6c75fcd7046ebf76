package worktree

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// mockRunner records git invocations and replays canned outputs keyed by the
// git subcommand.
type mockRunner struct {
	calls   []gitCall
	outputs map[string]string
	errors  map[string]error
}

type gitCall struct {
	dir  string
	args []string
}

func newMockRunner() *mockRunner {
	return &mockRunner{
		outputs: make(map[string]string),
		errors:  make(map[string]error),
	}
}

func (m *mockRunner) run(ctx context.Context, dir string, args ...string) (string, error) {
	m.calls = append(m.calls, gitCall{dir, args})
	key := strings.Join(args, " ")
	if err, ok := m.errors[key]; ok {
		return m.outputs[key], err
	}
	if out, ok := m.outputs[key]; ok {
		return out, nil
	}
	return "", nil
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "feature", false},
		{"with hyphen", "fix-login", false},
		{"with underscore", "api_v2", false},
		{"digit start", "2fa-support", false},
		{"empty", "", true},
		{"uppercase", "Feature", true},
		{"leading hyphen", "-feature", true},
		{"leading underscore", "_feature", true},
		{"slash", "feat/login", true},
		{"dot", "v1.2", true},
		{"space", "my feature", true},
		{"too long", strings.Repeat("a", MaxNameLength+1), true},
		{"max length", strings.Repeat("a", MaxNameLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestRepoRoot_TrimsOutput(t *testing.T) {
	mock := newMockRunner()
	mock.outputs["rev-parse --show-toplevel"] = "/home/user/project\n"
	git := NewGitWithRunner(mock.run)

	root, err := git.RepoRoot(context.Background(), "/home/user/project/src")
	if err != nil {
		t.Fatalf("RepoRoot() error = %v", err)
	}
	if root != "/home/user/project" {
		t.Errorf("RepoRoot() = %q, want %q", root, "/home/user/project")
	}
	if mock.calls[0].dir != "/home/user/project/src" {
		t.Errorf("RepoRoot() ran in %q, want the given dir", mock.calls[0].dir)
	}
}

func TestRepoRoot_OutsideRepository(t *testing.T) {
	mock := newMockRunner()
	mock.errors["rev-parse --show-toplevel"] = errors.New("fatal: not a git repository")
	git := NewGitWithRunner(mock.run)

	if _, err := git.RepoRoot(context.Background(), "/tmp"); err == nil {
		t.Fatal("RepoRoot() outside a repository should fail")
	}
}

func TestHasCommits(t *testing.T) {
	mock := newMockRunner()
	git := NewGitWithRunner(mock.run)
	if !git.HasCommits(context.Background(), "/repo") {
		t.Error("HasCommits() = false when rev-parse succeeds, want true")
	}

	mock.errors["rev-parse --verify --quiet HEAD"] = errors.New("exit status 1")
	if git.HasCommits(context.Background(), "/repo") {
		t.Error("HasCommits() = true on an unborn branch, want false")
	}
}

func TestCreate_BranchesFromHead(t *testing.T) {
	mock := newMockRunner()
	git := NewGitWithRunner(mock.run)

	err := git.Create(context.Background(), "/repo", "feature", "/repo/worktrees/feature")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	want := "worktree add -b feature /repo/worktrees/feature HEAD"
	got := strings.Join(mock.calls[0].args, " ")
	if got != want {
		t.Errorf("Create() ran %q, want %q", got, want)
	}
}

func TestCreate_RejectsInvalidName(t *testing.T) {
	mock := newMockRunner()
	git := NewGitWithRunner(mock.run)

	if err := git.Create(context.Background(), "/repo", "Bad Name", "/repo/worktrees/x"); err == nil {
		t.Fatal("Create() with an invalid name should fail before running git")
	}
	if len(mock.calls) != 0 {
		t.Errorf("Create() ran git %d times, want 0", len(mock.calls))
	}
}

func TestRemove_ForceFlag(t *testing.T) {
	mock := newMockRunner()
	git := NewGitWithRunner(mock.run)

	if err := git.Remove(context.Background(), "/repo", "/repo/worktrees/feature", false); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := git.Remove(context.Background(), "/repo", "/repo/worktrees/feature", true); err != nil {
		t.Fatalf("Remove(force) error = %v", err)
	}

	if got := strings.Join(mock.calls[0].args, " "); got != "worktree remove /repo/worktrees/feature" {
		t.Errorf("Remove() ran %q", got)
	}
	if got := strings.Join(mock.calls[1].args, " "); got != "worktree remove --force /repo/worktrees/feature" {
		t.Errorf("Remove(force) ran %q", got)
	}
}

func TestDeleteBranch_UnmergedDetection(t *testing.T) {
	mock := newMockRunner()
	mock.outputs["branch -d feature"] = "error: the branch 'feature' is not fully merged"
	mock.errors["branch -d feature"] = errors.New("exit status 1")
	git := NewGitWithRunner(mock.run)

	err := git.DeleteBranch(context.Background(), "/repo", "feature", false)
	var unmerged UnmergedBranchError
	if !errors.As(err, &unmerged) {
		t.Fatalf("DeleteBranch() error = %v, want UnmergedBranchError", err)
	}
	if unmerged.Branch != "feature" {
		t.Errorf("UnmergedBranchError.Branch = %q, want %q", unmerged.Branch, "feature")
	}

	// Forced delete uses -D and succeeds.
	if err := git.DeleteBranch(context.Background(), "/repo", "feature", true); err != nil {
		t.Fatalf("DeleteBranch(force) error = %v", err)
	}
	if got := strings.Join(mock.calls[1].args, " "); got != "branch -D feature" {
		t.Errorf("DeleteBranch(force) ran %q", got)
	}
}

func TestDeleteBranch_OtherErrorsPassThrough(t *testing.T) {
	mock := newMockRunner()
	mock.errors["branch -d gone"] = errors.New("error: branch 'gone' not found")
	git := NewGitWithRunner(mock.run)

	err := git.DeleteBranch(context.Background(), "/repo", "gone", false)
	if err == nil {
		t.Fatal("DeleteBranch() for a missing branch should fail")
	}
	var unmerged UnmergedBranchError
	if errors.As(err, &unmerged) {
		t.Error("DeleteBranch() misclassified a missing branch as unmerged")
	}
}

func TestPathExists(t *testing.T) {
	mock := newMockRunner()
	mock.outputs["worktree list --porcelain"] = `worktree /repo
HEAD abc123
branch refs/heads/main

worktree /repo/worktrees/feature
HEAD def456
branch refs/heads/feature
`
	git := NewGitWithRunner(mock.run)

	exists, err := git.PathExists(context.Background(), "/repo", "/repo/worktrees/feature")
	if err != nil {
		t.Fatalf("PathExists() error = %v", err)
	}
	if !exists {
		t.Error("PathExists() = false for a listed worktree, want true")
	}

	exists, err = git.PathExists(context.Background(), "/repo", "/repo/worktrees/gone")
	if err != nil {
		t.Fatalf("PathExists() error = %v", err)
	}
	if exists {
		t.Error("PathExists() = true for an unlisted worktree, want false")
	}
}

func TestDir(t *testing.T) {
	if got := Dir("/repo", "feature"); got != "/repo/worktrees/feature" {
		t.Errorf("Dir() = %q, want %q", got, "/repo/worktrees/feature")
	}
}
