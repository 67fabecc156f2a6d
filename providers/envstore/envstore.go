// Package envstore supplies keys from environment variables,
// optionally loading them from a dotenv file first.
package envstore

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/confkit/securestore"
)

// Store reads key items from the process environment. The environment
// cannot be written back, so Set always fails.
type Store struct {
	prefix string
}

// Option configures a Store.
type Option func(*Store) error

// WithPrefix prepends a fixed prefix to every item name looked up.
func WithPrefix(prefix string) Option {
	return func(s *Store) error {
		s.prefix = prefix
		return nil
	}
}

// WithDotenvFile loads variables from a dotenv file into the process
// environment before any lookup. Existing variables are not overridden.
func WithDotenvFile(path string) Option {
	return func(s *Store) error {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load dotenv file %q: %w", path, err)
		}
		return nil
	}
}

// New creates an environment-backed key store.
func New(opts ...Option) (*Store, error) {
	s := &Store{}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) Get(_ context.Context, item string) (string, error) {
	v, ok := os.LookupEnv(s.prefix + item)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: environment variable %q", securestore.ErrKeyNotFound, s.prefix+item)
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, item string, _ string) error {
	return fmt.Errorf("%w: cannot set %q in the environment", securestore.ErrKeyStoreReadOnly, item)
}

var _ securestore.KeyStore = (*Store)(nil)
