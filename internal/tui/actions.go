// pattern: Imperative Shell

package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Skarian/seshmux/internal/registry"
	"github.com/Skarian/seshmux/internal/tmux"
	"github.com/Skarian/seshmux/internal/worktree"
)

const (
	probeTimeout = 10 * time.Second
	buildTimeout = 60 * time.Second
)

// rowsLoadedMsg delivers the reconciled registry rows.
type rowsLoadedMsg struct {
	rows []worktreeRow
	err  error
}

// candidatesLoadedMsg delivers the extras candidates for the picker.
type candidatesLoadedMsg struct {
	entries []string
	err     error
}

// createDoneMsg is sent when the create flow's build finishes.
type createDoneMsg struct {
	name string
	err  error
}

// sessionReadyMsg is sent when the attach flow's session exists.
type sessionReadyMsg struct {
	name string
	err  error
}

// deleteDoneMsg is sent when the delete flow finishes.
type deleteDoneMsg struct {
	summary []string
	err     error
}

// attachFinishedMsg is sent when the terminal comes back from tmux.
type attachFinishedMsg struct {
	err error
}

// loadRows reconciles the registry against git, the filesystem, and the tmux
// server: a record whose directory is gone or that git no longer lists as a
// worktree renders as MISSING, a record with a live session gets a marker.
func (m Model) loadRows() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		records, err := m.store.List()
		if err != nil {
			return rowsLoadedMsg{err: err}
		}

		rows := make([]worktreeRow, 0, len(records))
		for _, rec := range records {
			_, statErr := os.Stat(rec.Path)
			missing := statErr != nil
			if !missing {
				// The directory can survive a git worktree prune.
				registered, err := m.git.PathExists(ctx, m.repoRoot, rec.Path)
				if err != nil {
					return rowsLoadedMsg{err: fmt.Errorf("listing git worktrees: %w", err)}
				}
				missing = !registered
			}

			branch := ""
			if !missing {
				branch, err = m.git.CurrentBranch(ctx, rec.Path)
				if err != nil {
					return rowsLoadedMsg{err: fmt.Errorf("resolving branch for %s: %w", rec.Name, err)}
				}
			}

			rows = append(rows, worktreeRow{
				Name:        rec.Name,
				Path:        rec.Path,
				Branch:      branch,
				CreatedAt:   rec.CreatedAt,
				Missing:     missing,
				SessionLive: m.sessions.SessionExists(ctx, rec.Name),
			})
		}
		return rowsLoadedMsg{rows: rows}
	}
}

// loadCandidates lists the repository's untracked and ignored entries and
// filters out the registry's skip buckets.
func (m Model) loadCandidates() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		entries, err := m.git.Candidates(ctx, m.repoRoot)
		if err != nil {
			return candidatesLoadedMsg{err: err}
		}
		settings, err := m.store.Extras()
		if err != nil {
			return candidatesLoadedMsg{err: err}
		}
		return candidatesLoadedMsg{entries: worktree.FilterSkipped(entries, settings.SkipBuckets())}
	}
}

// skipBucketForever adds a bucket to the registry's always-skip list and
// re-lists the candidates with the new setting applied.
func (m Model) skipBucketForever(bucket string) tea.Cmd {
	return func() tea.Msg {
		settings, err := m.store.Extras()
		if err != nil {
			return candidatesLoadedMsg{err: err}
		}
		if err := m.store.SaveSkipBuckets(append(settings.SkipBuckets(), bucket)); err != nil {
			return candidatesLoadedMsg{err: err}
		}
		return m.loadCandidates()()
	}
}

// createWorktree runs the whole create sequence: gitignore entry, git
// worktree, extras copy, registry insert, tmux session. A failure reports the
// stage it happened in and leaves earlier stages in place for inspection.
func (m Model) createWorktree(name string, extras []string, addGitignore bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
		defer cancel()

		if addGitignore {
			if err := worktree.EnsureGitignoreWorktrees(m.repoRoot); err != nil {
				return createDoneMsg{name: name, err: fmt.Errorf("updating .gitignore: %w", err)}
			}
		}

		path := worktree.Dir(m.repoRoot, name)
		if err := m.git.Create(ctx, m.repoRoot, name, path); err != nil {
			return createDoneMsg{name: name, err: fmt.Errorf("creating worktree: %w", err)}
		}
		if err := worktree.CopyExtras(m.repoRoot, path, extras); err != nil {
			return createDoneMsg{name: name, err: fmt.Errorf("copying extras: %w", err)}
		}
		record := registry.Record{Name: name, Path: path, CreatedAt: time.Now().UTC()}
		if err := m.store.Insert(record); err != nil {
			return createDoneMsg{name: name, err: fmt.Errorf("recording worktree: %w", err)}
		}

		windows, err := sessionWindows(m.cfg)
		if err != nil {
			return createDoneMsg{name: name, err: err}
		}
		if err := m.sessions.CreateSession(ctx, name, path, windows); err != nil {
			return createDoneMsg{name: name, err: fmt.Errorf("starting session: %w", err)}
		}
		return createDoneMsg{name: name}
	}
}

// ensureSession makes sure the selected worktree has a live session before
// the terminal handoff, creating one if needed. The record is re-resolved
// from the registry in case another process changed it since the rows loaded.
func (m Model) ensureSession(row worktreeRow) tea.Cmd {
	return func() tea.Msg {
		if row.Missing {
			return sessionReadyMsg{name: row.Name, err: fmt.Errorf("worktree path %s no longer exists", row.Path)}
		}

		rec, ok, err := m.store.Find(row.Name)
		if err != nil {
			return sessionReadyMsg{name: row.Name, err: err}
		}
		if !ok {
			return sessionReadyMsg{name: row.Name, err: fmt.Errorf("worktree %s is no longer registered", row.Name)}
		}

		ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
		defer cancel()

		windows, err := sessionWindows(m.cfg)
		if err != nil {
			return sessionReadyMsg{name: row.Name, err: err}
		}
		if err := m.sessions.CreateSession(ctx, rec.Name, rec.Path, windows); err != nil {
			return sessionReadyMsg{name: row.Name, err: err}
		}
		return sessionReadyMsg{name: row.Name}
	}
}

// deleteWorktree tears a worktree down: session first so nothing holds the
// directory open, then the worktree itself, then the registry record, then
// optionally the branch.
func (m Model) deleteWorktree(row worktreeRow, killSession, deleteBranch bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
		defer cancel()

		var summary []string

		if killSession {
			switch err := m.sessions.KillSession(ctx, row.Name); {
			case err == nil:
				summary = append(summary, "killed session "+row.Name)
			case errors.Is(err, tmux.ErrSessionMissing):
				// nothing to kill
			default:
				return deleteDoneMsg{summary: summary, err: fmt.Errorf("killing session: %w", err)}
			}
		}

		if row.Missing {
			// The directory is gone; tell git to drop its bookkeeping.
			if err := m.git.Remove(ctx, m.repoRoot, row.Path, true); err != nil {
				summary = append(summary, "worktree metadata already gone")
			} else {
				summary = append(summary, "pruned worktree "+row.Name)
			}
		} else {
			if err := m.git.Remove(ctx, m.repoRoot, row.Path, false); err != nil {
				return deleteDoneMsg{summary: summary, err: fmt.Errorf("removing worktree: %w", err)}
			}
			summary = append(summary, "removed worktree "+row.Name)
		}

		if err := m.store.Remove(row.Name); err != nil {
			var notFound *registry.NotFoundError
			if !errors.As(err, &notFound) {
				return deleteDoneMsg{summary: summary, err: fmt.Errorf("updating registry: %w", err)}
			}
		} else {
			summary = append(summary, "removed registry record")
		}

		if deleteBranch {
			if err := m.git.DeleteBranch(ctx, m.repoRoot, row.Name, false); err != nil {
				var unmerged worktree.UnmergedBranchError
				if errors.As(err, &unmerged) {
					return deleteDoneMsg{summary: summary,
						err: fmt.Errorf("branch %s is not fully merged; delete it manually with git branch -D", row.Name)}
				}
				return deleteDoneMsg{summary: summary, err: fmt.Errorf("deleting branch: %w", err)}
			}
			summary = append(summary, "deleted branch "+row.Name)
		}

		return deleteDoneMsg{summary: summary}
	}
}

// attachTo hands the terminal over to tmux and resumes the TUI when the
// session detaches.
func (m Model) attachTo(name string) tea.Cmd {
	return tea.ExecProcess(m.sessions.AttachCommand(name), func(err error) tea.Msg {
		return attachFinishedMsg{err: err}
	})
}
