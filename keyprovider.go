package securestore

import (
	"context"
	"fmt"

	"github.com/hengadev/errsx"
)

// Binding maps a logical key name to an item in a key store.
type Binding struct {
	Store KeyStore
	Item  string
}

// Provider is the standard KeyProvider: each logical key name is bound
// to a (key store, item) pair. Values are cached for the provider's
// lifetime, so a store reopened during rotation still sees the key it
// started with until the external source is updated.
type Provider struct {
	bindings map[string]Binding
	cache    map[string]string
}

// NewProvider builds a Provider from explicit bindings. All binding
// problems are collected and reported together.
func NewProvider(bindings map[string]Binding) (*Provider, error) {
	var errs errsx.Map
	if len(bindings) == 0 {
		errs.Set("bindings", "at least one key binding is required")
	}
	for name, b := range bindings {
		if name == "" {
			errs.Set("name", "logical key name must not be empty")
		}
		if b.Store == nil {
			errs.Set(fmt.Sprintf("binding %q", name), "key store is nil")
		}
		if b.Item == "" {
			errs.Set(fmt.Sprintf("binding %q", name), "item name must not be empty")
		}
	}
	if err := errs.AsError(); err != nil {
		return nil, fmt.Errorf("invalid key provider configuration: %w", err)
	}

	bound := make(map[string]Binding, len(bindings))
	for name, b := range bindings {
		bound[name] = b
	}
	return &Provider{bindings: bound, cache: make(map[string]string)}, nil
}

// Get resolves a logical key name through its binding. The first
// successful lookup is cached.
func (p *Provider) Get(ctx context.Context, name string) (string, error) {
	if v, ok := p.cache[name]; ok {
		return v, nil
	}
	b, ok := p.bindings[name]
	if !ok {
		return "", fmt.Errorf("%w: no binding for %q", ErrKeyUnavailable, name)
	}
	v, err := b.Store.Get(ctx, b.Item)
	if err != nil {
		return "", fmt.Errorf("%w: %q from item %q: %w", ErrKeyUnavailable, name, b.Item, err)
	}
	if v == "" {
		return "", fmt.Errorf("%w: item %q is empty", ErrKeyUnavailable, b.Item)
	}
	p.cache[name] = v
	return v, nil
}

// Set writes a new value through the binding and refreshes the cache.
func (p *Provider) Set(ctx context.Context, name string, value string) error {
	b, ok := p.bindings[name]
	if !ok {
		return fmt.Errorf("%w: no binding for %q", ErrKeyUnavailable, name)
	}
	if err := b.Store.Set(ctx, b.Item, value); err != nil {
		return fmt.Errorf("failed to store %q in item %q: %w", name, b.Item, err)
	}
	p.cache[name] = value
	return nil
}

// StaticKeys is a KeyProvider backed by a fixed in-memory map, for
// tests and embedding scenarios where the key is already at hand.
type StaticKeys map[string]string

func (s StaticKeys) Get(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %q", ErrKeyUnavailable, name)
	}
	return v, nil
}

func (s StaticKeys) Set(_ context.Context, name string, value string) error {
	s[name] = value
	return nil
}
