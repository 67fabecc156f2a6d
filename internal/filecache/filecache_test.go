package filecache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestLoadMissingFile(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "missing.json"), FormatJSON, AtomicWrite)

	var v payload
	found, err := f.Load(&v)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, f.Exists())
}

func TestAtomicWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "store.json")
	f := New(path, FormatJSON, AtomicWrite)

	require.NoError(t, f.Save(payload{Name: "alpha", Count: 3}))

	var v payload
	found, err := f.Load(&v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "alpha", Count: 3}, v)
}

func TestAtomicWritePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	f := New(path, FormatJSON, AtomicWrite)

	require.NoError(t, f.Save(payload{Name: "alpha"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := New(filepath.Join(dir, "store.json"), FormatJSON, AtomicWrite)

	require.NoError(t, f.Save(payload{Name: "alpha"}))
	require.NoError(t, f.Save(payload{Name: "beta"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSecureWritePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.json")
	f := New(path, FormatJSON, SecureWrite)

	require.NoError(t, f.Save(payload{Name: "alpha"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestReadOnlyRejectsSave(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "conf.yaml"), FormatYAML, ReadOnly)

	err := f.Save(payload{Name: "alpha"})
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf.yaml")

	require.NoError(t, New(path, FormatYAML, StandardWrite).Save(payload{Name: "alpha", Count: 1}))

	var v payload
	found, err := New(path, FormatYAML, ReadOnly).Load(&v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "alpha", Count: 1}, v)
}

func TestRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	f := New(path, FormatJSON, AtomicWrite)

	require.NoError(t, f.Save(payload{Name: "alpha"}))
	require.NoError(t, f.Remove())
	assert.False(t, f.Exists())

	// Removing a missing file is fine.
	require.NoError(t, f.Remove())
}
