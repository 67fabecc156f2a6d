// Package keyringstore supplies keys from the operating system keyring
// (macOS Keychain, Linux Secret Service, Windows Credential Manager).
package keyringstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/confkit/securestore"
)

// Store reads and writes key items under a fixed keyring service name.
type Store struct {
	service string
}

// New creates a keyring-backed key store. The service name groups all
// items belonging to one application.
func New(service string) (*Store, error) {
	if service == "" {
		return nil, fmt.Errorf("keyring service name must not be empty")
	}
	return &Store{service: service}, nil
}

func (s *Store) Get(_ context.Context, item string) (string, error) {
	v, err := keyring.Get(s.service, item)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: keyring item %q", securestore.ErrKeyNotFound, item)
		}
		return "", fmt.Errorf("keyring lookup failed for %q: %w", item, err)
	}
	return v, nil
}

func (s *Store) Set(_ context.Context, item string, value string) error {
	if err := keyring.Set(s.service, item, value); err != nil {
		return fmt.Errorf("keyring store failed for %q: %w", item, err)
	}
	return nil
}

var _ securestore.KeyStore = (*Store)(nil)
