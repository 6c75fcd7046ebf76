// pattern: Imperative Shell

package worktree

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Candidates lists untracked and ignored entries at repoRoot that a new
// worktree might want copied over: env files, local caches, build output.
// Untracked directories are collapsed to a single entry. Symlinks and
// anything under worktrees/ are excluded.
func (g *Git) Candidates(ctx context.Context, repoRoot string) ([]string, error) {
	seen := make(map[string]bool)
	var entries []string

	variants := [][]string{
		{"ls-files", "--others", "--exclude-standard", "--directory"},
		{"ls-files", "--others", "--exclude-standard", "--directory", "--ignored"},
	}
	for _, args := range variants {
		output, err := g.run(ctx, repoRoot, args...)
		if err != nil {
			return nil, fmt.Errorf("listing extras: %w", err)
		}
		for _, line := range strings.Split(output, "\n") {
			entry := strings.TrimSuffix(strings.TrimSpace(line), "/")
			if entry == "" || seen[entry] {
				continue
			}
			if entry == "worktrees" || strings.HasPrefix(entry, "worktrees/") {
				continue
			}
			info, err := os.Lstat(filepath.Join(repoRoot, entry))
			if err != nil || info.Mode()&os.ModeSymlink != 0 {
				continue
			}
			seen[entry] = true
			entries = append(entries, entry)
		}
	}

	sort.Strings(entries)
	return entries, nil
}

// FilterSkipped drops candidates that contain a skipped bucket anywhere in
// their path. Buckets like node_modules or target are large, regenerable,
// and never worth copying.
func FilterSkipped(entries, skip []string) []string {
	skipped := make(map[string]bool, len(skip))
	for _, bucket := range skip {
		skipped[bucket] = true
	}

	kept := make([]string, 0, len(entries))
	for _, entry := range entries {
		include := true
		for _, segment := range strings.Split(entry, "/") {
			if skipped[segment] {
				include = false
				break
			}
		}
		if include {
			kept = append(kept, entry)
		}
	}
	return kept
}

// Bucket returns the top-level directory a candidate entry lives under, the
// unit the registry's always_skip_buckets list is keyed by.
func Bucket(entry string) string {
	entry = strings.TrimPrefix(filepath.ToSlash(entry), "./")
	if i := strings.Index(entry, "/"); i >= 0 {
		return entry[:i]
	}
	return entry
}

// CopyExtras copies the selected entries from repoRoot into destRoot,
// preserving relative layout. Directories are copied recursively. Symlinks
// are skipped rather than followed.
func CopyExtras(repoRoot, destRoot string, entries []string) error {
	for _, entry := range entries {
		rel := filepath.Clean(entry)
		if rel == "." || filepath.IsAbs(rel) || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("refusing to copy %q: path escapes the repository", entry)
		}

		src := filepath.Join(repoRoot, rel)
		dst := filepath.Join(destRoot, rel)
		info, err := os.Lstat(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("copying %q: %w", entry, err)
		}

		switch {
		case info.Mode()&os.ModeSymlink != 0:
			continue
		case info.IsDir():
			if err := copyTree(src, dst); err != nil {
				return fmt.Errorf("copying %q: %w", entry, err)
			}
		default:
			if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
				return fmt.Errorf("copying %q: %w", entry, err)
			}
		}
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(path, target, info.Mode().Perm())
	})
}

func copyFile(src, dst string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
