package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) *Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "secstore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return &Config{Path: path}
}

func TestLoadConfig(t *testing.T) {
	cfg := writeConfig(t, `
store_file: secrets.json
keystore:
  type: keyfile
  path: keys.json
`)
	require.NoError(t, cfg.Load())
	assert.Equal(t, "secrets.json", cfg.StoreFile)
	assert.Equal(t, "keyfile", cfg.KeyStore.Type)
	assert.Equal(t, defaultKeyItem, cfg.KeyStore.Item)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := &Config{Path: filepath.Join(t.TempDir(), "nope.yaml")}
	require.Error(t, cfg.Load())
}

func TestLoadConfigValidation(t *testing.T) {
	cfg := writeConfig(t, `keystore: {item: MK}`)
	err := cfg.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store_file")
}

func TestOpenKeyStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		ks      KeyStoreConfig
		wantErr bool
	}{
		{name: "keyfile", ks: KeyStoreConfig{Type: "keyfile", Path: filepath.Join(dir, "keys.json")}},
		{name: "keyfile without path", ks: KeyStoreConfig{Type: "keyfile"}, wantErr: true},
		{name: "env", ks: KeyStoreConfig{Type: "env"}},
		{name: "sqlite", ks: KeyStoreConfig{Type: "sqlite", Path: filepath.Join(dir, "keys.db")}},
		{name: "sqlite without path", ks: KeyStoreConfig{Type: "sqlite"}, wantErr: true},
		{name: "unknown", ks: KeyStoreConfig{Type: "pigeon"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{KeyStore: tt.ks}
			store, closeFn, err := cfg.openKeyStore(ctx)
			if closeFn != nil {
				defer closeFn() //nolint:errcheck
			}
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, store)
		})
	}
}
