package securestore

import "github.com/confkit/securestore/internal/crypt"

// GenerateMasterKey returns a fresh random 32-byte master key,
// Base64-encoded, suitable for seeding a key store before the first
// Open.
func GenerateMasterKey() (string, error) {
	return crypt.GenerateMasterKey()
}
