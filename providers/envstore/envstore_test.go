package envstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confkit/securestore"
)

func TestGet(t *testing.T) {
	ctx := context.Background()
	t.Setenv("SECSTORE_TEST_KEY", "dmFsdWU=")

	s, err := New()
	require.NoError(t, err)

	got, err := s.Get(ctx, "SECSTORE_TEST_KEY")
	require.NoError(t, err)
	assert.Equal(t, "dmFsdWU=", got)

	_, err = s.Get(ctx, "SECSTORE_TEST_ABSENT")
	require.ErrorIs(t, err, securestore.ErrKeyNotFound)
}

func TestGetEmptyValue(t *testing.T) {
	t.Setenv("SECSTORE_TEST_EMPTY", "")

	s, err := New()
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "SECSTORE_TEST_EMPTY")
	require.ErrorIs(t, err, securestore.ErrKeyNotFound)
}

func TestWithPrefix(t *testing.T) {
	t.Setenv("MYAPP_MASTER", "a2V5")

	s, err := New(WithPrefix("MYAPP_"))
	require.NoError(t, err)

	got, err := s.Get(context.Background(), "MASTER")
	require.NoError(t, err)
	assert.Equal(t, "a2V5", got)
}

func TestWithDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SECSTORE_DOTENV_KEY=ZG90ZW52\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SECSTORE_DOTENV_KEY") })

	s, err := New(WithDotenvFile(path))
	require.NoError(t, err)

	got, err := s.Get(context.Background(), "SECSTORE_DOTENV_KEY")
	require.NoError(t, err)
	assert.Equal(t, "ZG90ZW52", got)
}

func TestWithDotenvFileMissing(t *testing.T) {
	_, err := New(WithDotenvFile(filepath.Join(t.TempDir(), "nope.env")))
	require.Error(t, err)
}

func TestSetIsRejected(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	err = s.Set(context.Background(), "ANY", "dg==")
	require.ErrorIs(t, err, securestore.ErrKeyStoreReadOnly)
}
