// Package commands implements the secstore CLI commands.
package commands

import (
	"context"
	"fmt"

	"github.com/hengadev/errsx"

	"github.com/confkit/securestore"
	"github.com/confkit/securestore/internal/filecache"
	"github.com/confkit/securestore/providers/awssm"
	"github.com/confkit/securestore/providers/envstore"
	"github.com/confkit/securestore/providers/keyfile"
	"github.com/confkit/securestore/providers/keyringstore"
	"github.com/confkit/securestore/providers/sqlite"
	"github.com/confkit/securestore/providers/vault"
)

// defaultKeyItem is the key store item the master key is kept under
// when the config file does not name one.
const defaultKeyItem = "SECSTORE_MASTER_KEY"

// Config is the CLI configuration, read from a YAML file.
type Config struct {
	Path string `yaml:"-"`

	StoreFile string         `yaml:"store_file"`
	KeyStore  KeyStoreConfig `yaml:"keystore"`
}

// KeyStoreConfig selects and configures the key store backend holding
// the master key.
type KeyStoreConfig struct {
	// Type is one of: env, keyfile, keyring, vault, awssm, sqlite.
	Type string `yaml:"type"`
	// Item is the name the master key is stored under in the backend.
	Item string `yaml:"item"`

	// Backend-specific settings.
	Path    string `yaml:"path,omitempty"`    // keyfile, sqlite
	Service string `yaml:"service,omitempty"` // keyring
	Prefix  string `yaml:"prefix,omitempty"`  // env
	Dotenv  string `yaml:"dotenv,omitempty"`  // env
	Region  string `yaml:"region,omitempty"`  // awssm
}

// Load reads and validates the configuration file.
func (c *Config) Load() error {
	f := filecache.New(c.Path, filecache.FormatYAML, filecache.ReadOnly)
	found, err := f.Load(c)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", c.Path, err)
	}
	if !found {
		return fmt.Errorf("config file %s does not exist (run 'secstore init' first)", c.Path)
	}

	var errs errsx.Map
	if c.StoreFile == "" {
		errs.Set("store_file", "missing value")
	}
	if c.KeyStore.Type == "" {
		errs.Set("keystore.type", "missing value")
	}
	if c.KeyStore.Item == "" {
		c.KeyStore.Item = defaultKeyItem
	}
	if err := errs.AsError(); err != nil {
		return fmt.Errorf("invalid config %s: %w", c.Path, err)
	}
	return nil
}

// openKeyStore builds the configured key store backend. The returned
// close function is nil for backends without resources to release.
func (c *Config) openKeyStore(ctx context.Context) (securestore.KeyStore, func() error, error) {
	ks := c.KeyStore
	switch ks.Type {
	case "env":
		var opts []envstore.Option
		if ks.Prefix != "" {
			opts = append(opts, envstore.WithPrefix(ks.Prefix))
		}
		if ks.Dotenv != "" {
			opts = append(opts, envstore.WithDotenvFile(ks.Dotenv))
		}
		s, err := envstore.New(opts...)
		return s, nil, err
	case "keyfile":
		if ks.Path == "" {
			return nil, nil, fmt.Errorf("keystore.path is required for type %q", ks.Type)
		}
		return keyfile.New(ks.Path), nil, nil
	case "keyring":
		service := ks.Service
		if service == "" {
			service = "secstore"
		}
		s, err := keyringstore.New(service)
		return s, nil, err
	case "vault":
		s, err := vault.New()
		return s, nil, err
	case "awssm":
		s, err := awssm.New(ctx, awssm.Config{Region: ks.Region})
		return s, nil, err
	case "sqlite":
		if ks.Path == "" {
			return nil, nil, fmt.Errorf("keystore.path is required for type %q", ks.Type)
		}
		s, err := sqlite.Open(ks.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown keystore type %q", ks.Type)
	}
}

// session bundles an open store with the key provider and backend it
// was opened through.
type session struct {
	store    *securestore.SecureStore
	provider *securestore.Provider
	closeFn  func() error
}

func (s *session) Close() error {
	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}

// openSession loads the config, resolves the master key through the
// configured backend, and opens the secret store.
func openSession(ctx context.Context, cfg *Config) (*session, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	ks, closeFn, err := cfg.openKeyStore(ctx)
	if err != nil {
		return nil, err
	}
	cleanup := func() {
		if closeFn != nil {
			closeFn() //nolint:errcheck
		}
	}

	provider, err := securestore.NewProvider(map[string]securestore.Binding{
		securestore.MasterKeyName: {Store: ks, Item: cfg.KeyStore.Item},
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	store, err := securestore.Open(ctx, cfg.StoreFile, provider)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &session{store: store, provider: provider, closeFn: closeFn}, nil
}
