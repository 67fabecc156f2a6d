// Package securestore provides an encrypted, integrity-protected
// key-value store for secret strings, intended as the storage backend
// for secret-typed entries of a configuration system.
//
// Each item is encrypted with AES-256-GCM under a key derived from an
// externally supplied master key (HKDF-SHA256, per-store salt,
// purpose-separated subkeys). The associated data of every encryption
// binds the item name, store version, salt and master-key hash, so
// ciphertext cannot be moved between items, stores or key epochs. An
// HMAC-SHA256 over the canonicalized item set detects tampering with
// the file beyond the per-item authentication tags.
//
// The master key is obtained from a KeyProvider and never persisted in
// plaintext. Rotation is automatic: PrepareAutoKeyExchange generates a
// new key and stashes the old one encrypted under it; the next Open
// under the new key re-encrypts every item and rebinds the header.
//
// Basic usage:
//
//	keys, _ := envstore.New()
//	provider, _ := securestore.NewProvider(map[string]securestore.Binding{
//	    securestore.MasterKeyName: {Store: keys, Item: "APP_MASTER_KEY"},
//	})
//	err := securestore.Update(ctx, "/var/lib/app/secrets.json", provider, func(s *securestore.SecureStore) error {
//	    return s.StoreSecret("db_password", "hunter2")
//	})
package securestore
