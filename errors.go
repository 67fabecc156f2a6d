package securestore

import (
	"errors"

	"github.com/confkit/securestore/internal/crypt"
)

var (
	// ErrIntegrity signals tampering or corruption: a missing items MAC,
	// a MAC algorithm mismatch, or a MAC verification failure. It is
	// always fatal and never retried.
	ErrIntegrity = errors.New("secure store integrity check failed")

	// ErrHeaderFormat signals a store document whose header is missing
	// required fields or cannot be parsed.
	ErrHeaderFormat = errors.New("invalid secure store header")

	// ErrValueTooLong is returned when a plaintext exceeds MaxSecretLen
	// bytes. The value is rejected before any I/O.
	ErrValueTooLong = crypt.ErrValueTooLong

	// ErrStoreIO wraps file read/write/permission failures.
	ErrStoreIO = errors.New("secure store file error")

	// ErrKeyUnavailable is returned when the key provider cannot supply
	// a requested key.
	ErrKeyUnavailable = errors.New("master key unavailable")

	// ErrKeyNotFound is returned by key stores for unknown item names.
	ErrKeyNotFound = errors.New("key item not found")

	// ErrKeyStoreReadOnly is returned by key stores that do not support
	// storing values.
	ErrKeyStoreReadOnly = errors.New("key store does not support writing")

	// ErrStoreDeleted is returned by operations on a store after DeleteStore.
	ErrStoreDeleted = errors.New("secure store has been deleted")
)

// IsIntegrityError reports whether err signals tampering or corruption
// of the store. Callers must treat these as fatal.
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// IsKeyError reports whether err stems from the key provider rather
// than from the store itself.
func IsKeyError(err error) bool {
	return errors.Is(err, ErrKeyUnavailable) || errors.Is(err, ErrKeyNotFound)
}

// IsIOError reports whether err wraps a file system failure.
func IsIOError(err error) bool {
	return errors.Is(err, ErrStoreIO)
}
