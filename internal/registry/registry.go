// pattern: Imperative Shell

package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	toml "github.com/pelletier/go-toml/v2"
)

// Version is the only supported registry schema version.
const Version = 1

// defaultAlwaysSkipBuckets are directory names excluded by default when
// offering untracked/ignored files to copy into a new worktree.
var defaultAlwaysSkipBuckets = []string{
	"target",
	"node_modules",
	".next",
	".nuxt",
	".svelte-kit",
	"dist",
	"build",
	"out",
	"coverage",
	".cache",
	"__pycache__",
	".pytest_cache",
	".mypy_cache",
	".ruff_cache",
	".tox",
	".nox",
	".venv",
	"venv",
	"vendor",
	"vendor/bundle",
	".gradle",
	"DerivedData",
	"Pods",
	"Carthage",
	".terraform",
	".serverless",
	"cdk.out",
	".dart_tool",
}

// Record is one registered worktree. CreatedAt is immutable once set and is
// stored as a TOML datetime.
type Record struct {
	Name      string    `toml:"name"`
	Path      string    `toml:"path"`
	CreatedAt time.Time `toml:"created_at"`
}

// Settings holds repository-scoped extras configuration.
type Settings struct {
	// AlwaysSkipBuckets is nil when the registry file has never configured
	// it; an explicit empty list disables skipping entirely.
	AlwaysSkipBuckets []string
	configured        bool
}

// SkipBuckets returns the effective skip set: the configured values when
// present, the built-in defaults otherwise.
func (s Settings) SkipBuckets() []string {
	if s.configured {
		return s.AlwaysSkipBuckets
	}
	return append([]string{}, defaultAlwaysSkipBuckets...)
}

type registryFile struct {
	Version  int          `toml:"version"`
	Settings settingsFile `toml:"settings"`
	Worktree []Record     `toml:"worktree"`
}

type settingsFile struct {
	Extras extrasFile `toml:"extras"`
}

type extrasFile struct {
	AlwaysSkipBuckets *[]string `toml:"always_skip_buckets,omitempty"`
}

// DuplicateNameError reports an insert whose name is already registered.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("worktree registry already contains name %q", e.Name)
}

// DuplicatePathError reports an insert whose path is already registered.
type DuplicatePathError struct {
	Path string
}

func (e *DuplicatePathError) Error() string {
	return fmt.Sprintf("worktree registry already contains path %q", e.Path)
}

// NotFoundError reports a remove or lookup for an unregistered name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("worktree %q was not found in the registry", e.Name)
}

// SchemaError reports a registry file that exists but violates the schema.
type SchemaError struct {
	Message string
}

func (e *SchemaError) Error() string {
	return "invalid worktree registry schema: " + e.Message
}

// Store reads and writes the registry file for one repository root. Every
// mutating call is serialized by a file lock and persisted atomically
// (temp-write-then-rename), so a crash mid-write never corrupts the file.
type Store struct {
	repoRoot string
}

// Open returns a Store scoped to the given repository root. No I/O happens
// until an operation is called.
func Open(repoRoot string) *Store {
	return &Store{repoRoot: repoRoot}
}

// Dir returns the worktree storage area under the repository root.
func (s *Store) Dir() string {
	return filepath.Join(s.repoRoot, "worktrees")
}

// Path returns the registry file location.
func (s *Store) Path() string {
	return filepath.Join(s.Dir(), "worktree.toml")
}

func (s *Store) lockPath() string {
	return filepath.Join(s.Dir(), "worktree.lock")
}

// List returns all records in insertion order. It does not verify that the
// paths still exist on disk; reconciliation is the caller's concern.
func (s *Store) List() ([]Record, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.Worktree, nil
}

// Find returns the record with the given name, if registered.
func (s *Store) Find(name string) (Record, bool, error) {
	file, err := s.load()
	if err != nil {
		return Record{}, false, err
	}

	for _, record := range file.Worktree {
		if record.Name == name {
			return record, true, nil
		}
	}
	return Record{}, false, nil
}

// Extras returns the repository-scoped extras settings.
func (s *Store) Extras() (Settings, error) {
	file, err := s.load()
	if err != nil {
		return Settings{}, err
	}
	return settingsFromFile(file), nil
}

// Available reports whether name and path are both free for registration.
func (s *Store) Available(name, path string) error {
	file, err := s.load()
	if err != nil {
		return err
	}
	return ensureUnique(file.Worktree, name, path)
}

// Insert appends the record and persists the file. A duplicate name or path
// fails the call without touching disk.
func (s *Store) Insert(record Record) error {
	return s.withLock(func() error {
		file, err := s.load()
		if err != nil {
			return err
		}

		if err := ensureUnique(file.Worktree, record.Name, record.Path); err != nil {
			return err
		}

		file.Worktree = append(file.Worktree, record)
		return s.write(file)
	})
}

// Remove deletes the named record and persists the file.
func (s *Store) Remove(name string) error {
	return s.withLock(func() error {
		file, err := s.load()
		if err != nil {
			return err
		}

		index := -1
		for i, record := range file.Worktree {
			if record.Name == name {
				index = i
				break
			}
		}
		if index < 0 {
			return &NotFoundError{Name: name}
		}

		file.Worktree = append(file.Worktree[:index], file.Worktree[index+1:]...)
		return s.write(file)
	})
}

// SaveSkipBuckets persists an explicit always_skip_buckets list.
func (s *Store) SaveSkipBuckets(buckets []string) error {
	return s.withLock(func() error {
		file, err := s.load()
		if err != nil {
			return err
		}

		normalized := normalizeBuckets(buckets)
		file.Settings.Extras.AlwaysSkipBuckets = &normalized
		return s.write(file)
	})
}

// withLock serializes a load-modify-write across concurrent invocations of
// the tool against the same repository.
func (s *Store) withLock(fn func() error) error {
	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create worktree storage directory: %w", err)
	}

	fl := flock.New(s.lockPath())
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("failed to lock registry: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}

func (s *Store) load() (registryFile, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return registryFile{Version: Version}, nil
		}
		return registryFile{}, fmt.Errorf("failed to read registry at %s: %w", s.Path(), err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return registryFile{}, fmt.Errorf("failed to parse registry at %s: %w", s.Path(), err)
	}
	if err := validateSchema(raw); err != nil {
		return registryFile{}, err
	}

	var file registryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return registryFile{}, fmt.Errorf("failed to parse registry at %s: %w", s.Path(), err)
	}

	return file, nil
}

// validateSchema enforces the required shape of an existing registry file so
// a truncated or hand-edited file fails loudly instead of reading as empty.
func validateSchema(raw map[string]any) error {
	version, ok := raw["version"]
	if !ok {
		return &SchemaError{Message: "missing required top-level field 'version'"}
	}
	current, ok := version.(int64)
	if !ok {
		return &SchemaError{Message: fmt.Sprintf("unsupported version (expected %d, found %v)", Version, version)}
	}
	if current != Version {
		return &SchemaError{Message: fmt.Sprintf("unsupported version (expected %d, found %d)", Version, current)}
	}

	settings, ok := raw["settings"].(map[string]any)
	if !ok {
		return &SchemaError{Message: "missing required section [settings.extras]"}
	}
	if _, ok := settings["extras"].(map[string]any); !ok {
		return &SchemaError{Message: "missing required section [settings.extras]"}
	}

	if _, ok := raw["worktree"].([]any); !ok {
		return &SchemaError{Message: "missing required [[worktree]] entries section"}
	}

	return nil
}

// write persists the file atomically. The worktree and extras sections are
// always emitted, even when empty, so the schema round-trips. An empty
// worktree list is written as a top-level key before the settings table so
// it does not nest inside [settings.extras].
func (s *Store) write(file registryFile) error {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("version = %d\n", Version))
	if len(file.Worktree) == 0 {
		buf.WriteString("worktree = []\n")
	}

	buf.WriteString("\n[settings.extras]\n")
	if file.Settings.Extras.AlwaysSkipBuckets != nil {
		buckets, err := toml.Marshal(map[string][]string{
			"always_skip_buckets": *file.Settings.Extras.AlwaysSkipBuckets,
		})
		if err != nil {
			return fmt.Errorf("failed to serialize registry settings: %w", err)
		}
		buf.Write(buckets)
	}

	if len(file.Worktree) > 0 {
		entries, err := toml.Marshal(map[string][]Record{"worktree": file.Worktree})
		if err != nil {
			return fmt.Errorf("failed to serialize registry: %w", err)
		}
		buf.WriteString("\n")
		buf.Write(entries)
	}

	if err := os.MkdirAll(s.Dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create worktree storage directory: %w", err)
	}

	tempPath := s.Path() + ".tmp"
	if err := os.WriteFile(tempPath, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write registry at %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, s.Path()); err != nil {
		return fmt.Errorf("failed to write registry at %s: %w", s.Path(), err)
	}

	return nil
}

func ensureUnique(records []Record, name, path string) error {
	for _, record := range records {
		if record.Name == name {
			return &DuplicateNameError{Name: name}
		}
		if record.Path == path {
			return &DuplicatePathError{Path: path}
		}
	}
	return nil
}

func settingsFromFile(file registryFile) Settings {
	if file.Settings.Extras.AlwaysSkipBuckets == nil {
		return Settings{}
	}
	return Settings{
		AlwaysSkipBuckets: normalizeBuckets(*file.Settings.Extras.AlwaysSkipBuckets),
		configured:        true,
	}
}

func normalizeBuckets(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		out = append(out, trimmed)
	}
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	return out
}
