package securestore

import "context"

// KeyProvider supplies key material to a SecureStore. The store asks
// for the logical name "master_key" and expects a Base64-encoded
// 32-byte key. Any failure to supply a key is the provider's to report.
type KeyProvider interface {
	Get(ctx context.Context, name string) (string, error)
}

// KeyWriter is implemented by key providers that can also persist a
// key, used after rotation to hand the new master key back to the
// external key source.
type KeyWriter interface {
	Set(ctx context.Context, name string, value string) error
}

// KeyStore is a pluggable backend holding named key strings (an OS
// keyring, an environment variable, a key file, a secrets manager).
// Get returns ErrKeyNotFound for unknown items; Set returns
// ErrKeyStoreReadOnly on backends that cannot write.
type KeyStore interface {
	Get(ctx context.Context, item string) (string, error)
	Set(ctx context.Context, item string, value string) error
}
