package securestore

import "context"

// Update opens the store at path, runs fn against it, and saves only
// when fn returned nil and the store is dirty. On error nothing is
// persisted, so a failed mutation never leaves partial state on disk.
func Update(ctx context.Context, path string, provider KeyProvider, fn func(*SecureStore) error, opts ...Option) error {
	s, err := Open(ctx, path, provider, opts...)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return s.Save(ctx)
}

// View opens the store at path and runs fn against it without ever
// persisting, regardless of what fn does to the in-memory state.
func View(ctx context.Context, path string, provider KeyProvider, fn func(*SecureStore) error, opts ...Option) error {
	s, err := Open(ctx, path, provider, opts...)
	if err != nil {
		return err
	}
	return fn(s)
}
