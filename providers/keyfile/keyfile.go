// Package keyfile supplies keys from a JSON file on disk. The file is
// a flat object of item name to value and is written with owner-only
// permissions.
package keyfile

import (
	"context"
	"fmt"

	"github.com/confkit/securestore"
	"github.com/confkit/securestore/internal/filecache"
)

// Store is a file-backed key store. Values are cached after the first
// read; Set rewrites the whole file.
type Store struct {
	file *filecache.File
	data map[string]string
}

// New creates a key store backed by the JSON file at path. The file
// may be absent until the first Set.
func New(path string) *Store {
	return &Store{file: filecache.New(path, filecache.FormatJSON, filecache.SecureWrite)}
}

func (s *Store) load() error {
	if s.data != nil {
		return nil
	}
	data := map[string]string{}
	if _, err := s.file.Load(&data); err != nil {
		return err
	}
	s.data = data
	return nil
}

func (s *Store) Get(_ context.Context, item string) (string, error) {
	if err := s.load(); err != nil {
		return "", err
	}
	v, ok := s.data[item]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: item %q in %q", securestore.ErrKeyNotFound, item, s.file.Path())
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, item string, value string) error {
	if err := s.load(); err != nil {
		return err
	}
	s.data[item] = value
	if err := s.file.Save(s.data); err != nil {
		return fmt.Errorf("failed to save key file: %w", err)
	}
	return nil
}

var _ securestore.KeyStore = (*Store)(nil)
