package keyfile

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confkit/securestore"
)

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keys.json")

	s := New(path)
	require.NoError(t, s.Set(ctx, "master_key", "a2V5"))

	got, err := s.Get(ctx, "master_key")
	require.NoError(t, err)
	assert.Equal(t, "a2V5", got)

	// A fresh store reads the persisted file.
	got, err = New(path).Get(ctx, "master_key")
	require.NoError(t, err)
	assert.Equal(t, "a2V5", got)
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "keys.json"))

	_, err := s.Get(ctx, "absent")
	require.ErrorIs(t, err, securestore.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "present", "dg=="))
	_, err = s.Get(ctx, "absent")
	require.ErrorIs(t, err, securestore.ErrKeyNotFound)
}

func TestFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	path := filepath.Join(t.TempDir(), "keys.json")

	s := New(path)
	require.NoError(t, s.Set(context.Background(), "master_key", "a2V5"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSetOverwrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keys.json")

	s := New(path)
	require.NoError(t, s.Set(ctx, "master_key", "b2xk"))
	require.NoError(t, s.Set(ctx, "master_key", "bmV3"))

	got, err := New(path).Get(ctx, "master_key")
	require.NoError(t, err)
	assert.Equal(t, "bmV3", got)
}
