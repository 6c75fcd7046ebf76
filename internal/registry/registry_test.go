package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(name, path string) Record {
	return Record{Name: name, Path: path, CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)}
}

func TestListOnMissingFileIsEmpty(t *testing.T) {
	store := Open(t.TempDir())

	records, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoFileExists(t, store.Path())
}

func TestInsertPersistsInInsertionOrder(t *testing.T) {
	root := t.TempDir()
	store := Open(root)

	require.NoError(t, store.Insert(record("w1", filepath.Join(root, "worktrees", "w1"))))
	require.NoError(t, store.Insert(record("w2", filepath.Join(root, "worktrees", "w2"))))
	require.NoError(t, store.Insert(record("w3", filepath.Join(root, "worktrees", "w3"))))

	// Reopen to prove the order survives a process restart.
	records, err := Open(root).List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "w1", records[0].Name)
	assert.Equal(t, "w2", records[1].Name)
	assert.Equal(t, "w3", records[2].Name)
}

func TestInsertRejectsDuplicateNameWithoutMutatingFile(t *testing.T) {
	root := t.TempDir()
	store := Open(root)
	require.NoError(t, store.Insert(record("w1", "/tmp/a")))

	before, err := os.ReadFile(store.Path())
	require.NoError(t, err)

	err = store.Insert(record("w1", "/tmp/b"))
	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "w1", dup.Name)

	after, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInsertRejectsDuplicatePath(t *testing.T) {
	store := Open(t.TempDir())
	require.NoError(t, store.Insert(record("w1", "/tmp/a")))

	err := store.Insert(record("w2", "/tmp/a"))
	var dup *DuplicatePathError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "/tmp/a", dup.Path)
}

func TestRemoveDeletesRecord(t *testing.T) {
	store := Open(t.TempDir())
	require.NoError(t, store.Insert(record("w1", "/tmp/a")))
	require.NoError(t, store.Insert(record("w2", "/tmp/b")))

	require.NoError(t, store.Remove("w1"))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "w2", records[0].Name)
}

func TestRemoveUnknownNameFails(t *testing.T) {
	store := Open(t.TempDir())

	err := store.Remove("ghost")
	var missing *NotFoundError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "ghost", missing.Name)
}

func TestFindReturnsRegisteredRecord(t *testing.T) {
	store := Open(t.TempDir())
	require.NoError(t, store.Insert(record("w1", "/tmp/a")))

	found, ok, err := store.Find("w1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/tmp/a", found.Path)

	_, ok, err = store.Find("other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWrittenFileContainsRequiredSections(t *testing.T) {
	store := Open(t.TempDir())
	require.NoError(t, store.Insert(record("w1", "/tmp/a")))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "version = 1")
	assert.Contains(t, content, "[settings.extras]")
	assert.Contains(t, content, "[[worktree]]")
}

func TestAtomicWriteLeavesNoTempFile(t *testing.T) {
	store := Open(t.TempDir())
	require.NoError(t, store.Insert(record("w1", "/tmp/a")))

	assert.NoFileExists(t, store.Path()+".tmp")
}

func TestStaleTempFileDoesNotAffectLoad(t *testing.T) {
	// A crash between temp-write and rename leaves the prior file intact.
	root := t.TempDir()
	store := Open(root)
	require.NoError(t, store.Insert(record("w1", "/tmp/a")))

	require.NoError(t, os.WriteFile(store.Path()+".tmp", []byte("version = 99\ngarbage"), 0o644))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "w1", records[0].Name)
}

func TestLoadRejectsMissingVersion(t *testing.T) {
	root := t.TempDir()
	store := Open(root)
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("[settings.extras]\nworktree=[]\n"), 0o644))

	_, err := store.List()
	var schema *SchemaError
	require.ErrorAs(t, err, &schema)
	assert.Contains(t, schema.Error(), "missing required top-level field 'version'")
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	root := t.TempDir()
	store := Open(root)
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("version = 2\nworktree=[]\n[settings.extras]\n"), 0o644))

	_, err := store.List()
	var schema *SchemaError
	require.ErrorAs(t, err, &schema)
	assert.Contains(t, schema.Error(), "unsupported version")
}

func TestLoadRejectsMissingSettingsExtras(t *testing.T) {
	root := t.TempDir()
	store := Open(root)
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("version = 1\nworktree=[]\n"), 0o644))

	_, err := store.List()
	var schema *SchemaError
	require.ErrorAs(t, err, &schema)
	assert.Contains(t, schema.Error(), "[settings.extras]")
}

func TestLoadRejectsMissingWorktreeSection(t *testing.T) {
	root := t.TempDir()
	store := Open(root)
	require.NoError(t, os.MkdirAll(store.Dir(), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("version = 1\n[settings.extras]\n"), 0o644))

	_, err := store.List()
	var schema *SchemaError
	require.ErrorAs(t, err, &schema)
	assert.Contains(t, schema.Error(), "[[worktree]]")
}

func TestExtrasDefaultsWhenUnconfigured(t *testing.T) {
	store := Open(t.TempDir())

	settings, err := store.Extras()
	require.NoError(t, err)
	buckets := settings.SkipBuckets()
	assert.Contains(t, buckets, "node_modules")
	assert.Contains(t, buckets, "target")
}

func TestExtrasHonorsExplicitEmptyList(t *testing.T) {
	root := t.TempDir()
	store := Open(root)
	require.NoError(t, store.SaveSkipBuckets(nil))

	settings, err := store.Extras()
	require.NoError(t, err)
	assert.Empty(t, settings.SkipBuckets())
}

func TestSaveSkipBucketsNormalizesValues(t *testing.T) {
	root := t.TempDir()
	store := Open(root)
	require.NoError(t, store.SaveSkipBuckets([]string{" target ", "node_modules", "target", ""}))

	settings, err := Open(root).Extras()
	require.NoError(t, err)
	assert.Equal(t, []string{"node_modules", "target"}, settings.SkipBuckets())
}

func TestSaveSkipBucketsPreservesRecords(t *testing.T) {
	root := t.TempDir()
	store := Open(root)
	require.NoError(t, store.Insert(record("w1", "/tmp/a")))
	require.NoError(t, store.SaveSkipBuckets([]string{"target"}))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "w1", records[0].Name)
}
