package securestore

import "github.com/confkit/securestore/internal/crypt"

// storeVersion is written to the file header and bound into the HKDF
// info and AAD strings.
const storeVersion = 1

// MasterKeyName is the logical key name a SecureStore requests from
// its KeyProvider.
const MasterKeyName = "master_key"

// MaxSecretLen is the maximum plaintext length of a single secret in
// bytes. Longer values are rejected before any I/O.
const MaxSecretLen = crypt.MaxSecretLen

// autoExchangeOldMasterKey is the reserved item name holding the
// previous master key, encrypted under the new one, while a key
// exchange is pending. It must not be used as a regular secret name.
const autoExchangeOldMasterKey = "_aemk_old_k"

// JSON keys of a persisted item.
const (
	itemKeyNonce      = "n"
	itemKeyCiphertext = "ct"
)
