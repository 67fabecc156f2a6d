package securestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/hengadev/errsx"

	"github.com/confkit/securestore/internal/crypt"
	"github.com/confkit/securestore/internal/filecache"
)

// SecureStore is an encrypted key-value store for short secret strings.
//
// Secrets are encrypted with AES-256-GCM under keys derived from an
// externally supplied master key via HKDF-SHA256. Integrity of the
// whole item set is protected by an HMAC recorded in the header. The
// store migrates transparently from an old master key to a new one
// across one open/validate cycle (see PrepareAutoKeyExchange).
//
// A SecureStore is for single-writer use: it holds no locks, and
// concurrent processes writing the same file race with the last atomic
// rename winning. Items are mutated in memory; persistence happens on
// Save or through the Update guard.
//
// The store is not resistant to memory forensics, and there is no
// backup of the file on disk: losing it means losing all secrets.
type SecureStore struct {
	file      *filecache.File
	masterKey []byte
	header    *SecurityHeader
	items     map[string]Item
	dirty     bool
	valid     bool
	deleted   bool
	now       func() time.Time
}

// Open loads the store at path, creating it if absent, and validates
// the master key supplied by the provider. A fresh store is written to
// disk immediately, bound to the hash of the supplied key.
//
// Open succeeds even when the key does not match the stored one; check
// Valid (or call ValidateMasterKey) before trusting retrievals. An
// integrity failure, by contrast, is returned as an error.
func Open(ctx context.Context, path string, provider KeyProvider, opts ...Option) (*SecureStore, error) {
	cfg := defaultConfig()
	for i, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("invalid option %d: %w", i+1, err)
		}
	}

	keyStr, err := provider.Get(ctx, MasterKeyName)
	if err != nil {
		return nil, err
	}
	masterKey, err := base64.StdEncoding.DecodeString(keyStr)
	if err != nil {
		return nil, fmt.Errorf("%w: master key is not valid base64: %w", ErrKeyUnavailable, err)
	}

	s := &SecureStore{
		file:      filecache.New(path, filecache.FormatJSON, filecache.AtomicWrite),
		masterKey: masterKey,
		items:     map[string]Item{},
		now:       cfg.now,
	}

	var raw rawDocument
	found, err := s.file.Load(&raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreIO, err)
	}
	if found {
		if err := s.load(raw); err != nil {
			return nil, err
		}
	} else {
		if err := s.create(ctx); err != nil {
			return nil, err
		}
	}

	s.valid, err = s.ValidateMasterKey(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SecureStore) load(raw rawDocument) error {
	if raw.Header == nil {
		return fmt.Errorf("%w: missing header", ErrHeaderFormat)
	}
	header, err := parseHeader(raw.Header)
	if err != nil {
		return err
	}
	s.header = header
	s.items = raw.Items
	if s.items == nil {
		s.items = map[string]Item{}
	}
	s.dirty = false
	return nil
}

func (s *SecureStore) create(ctx context.Context) error {
	header, err := newHeader(s.masterKeyHash(), s.now())
	if err != nil {
		return err
	}
	s.header = header
	s.items = map[string]Item{}
	clog.FromContext(ctx).Infof("creating secure store at %s", s.file.Path())
	return s.save(true)
}

// save recomputes the items MAC and atomically rewrites the file.
// Without force, a clean store is left untouched.
func (s *SecureStore) save(force bool) error {
	if s.deleted {
		return ErrStoreDeleted
	}
	if !force && !s.dirty {
		return nil
	}
	if err := s.header.UpdateItemsMAC(s.items, s.masterKey); err != nil {
		return err
	}
	doc := document{Header: s.header, Items: s.items}
	if err := s.file.Save(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreIO, err)
	}
	s.dirty = false
	return nil
}

// Save persists the store if it has unsaved changes.
func (s *SecureStore) Save(ctx context.Context) error {
	return s.save(false)
}

// Dirty reports whether the store holds unsaved changes.
func (s *SecureStore) Dirty() bool { return s.dirty }

// Valid reports the result of the last master key validation.
func (s *SecureStore) Valid() bool { return s.valid }

// Path returns the backing file path.
func (s *SecureStore) Path() string { return s.file.Path() }

// SecretNames returns the sorted names of all stored items, including
// the reserved rotation item if a key exchange is pending.
func (s *SecureStore) SecretNames() []string {
	names := make([]string, 0, len(s.items))
	for name := range s.items {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateMasterKey checks the in-memory master key against the stored
// header.
//
// It returns (true, nil) when the key matches and the items MAC
// verifies, and (false, nil) when the key is simply wrong — an
// expected, recoverable caller error. When the key differs but the
// store carries a valid rotation chain (the old key recoverable under
// the current one), the pending key exchange is executed and the store
// reports valid under the new key.
//
// A missing items MAC, a MAC algorithm mismatch, or a MAC verification
// failure is returned as ErrIntegrity: tampering, not a wrong key.
func (s *SecureStore) ValidateMasterKey(ctx context.Context) (bool, error) {
	if s.deleted {
		return false, ErrStoreDeleted
	}
	if s.header.ItemsMACB64 == "" {
		return false, fmt.Errorf("%w: items MAC missing", ErrIntegrity)
	}

	if s.header.MKHash == s.masterKeyHash() {
		if err := s.header.VerifyItemsMAC(s.items, s.masterKey); err != nil {
			return false, err
		}
		s.valid = true
		return true, nil
	}

	// The in-memory key differs from the key the file was encrypted
	// under. The old key may be recoverable: during a prepared key
	// exchange it is stored encrypted under the new (current) key.
	oldKeyStr, ok := s.RetrieveSecret(ctx, autoExchangeOldMasterKey)
	if !ok {
		s.valid = false
		return false, nil
	}
	oldKey, err := base64.StdEncoding.DecodeString(oldKeyStr)
	if err != nil || s.header.MKHash != crypt.HashBytes(oldKey) {
		s.valid = false
		return false, nil
	}

	// Key exchange pending: verify integrity under the old key, then
	// re-encrypt everything under the new one.
	newKeyStr := s.masterKeyStr()
	s.masterKey = oldKey
	if err := s.header.VerifyItemsMAC(s.items, s.masterKey); err != nil {
		return false, err
	}
	if err := s.autoKeyExchange(ctx, newKeyStr); err != nil {
		return false, err
	}
	s.valid = true
	return true, nil
}

// StoreSecret encrypts value under the current master key and stores
// it as name, replacing any previous item. The change is in-memory
// until the next save.
func (s *SecureStore) StoreSecret(name, value string) error {
	if s.deleted {
		return ErrStoreDeleted
	}
	nonce, ct, err := crypt.Encrypt(name, s.header.Version, s.header.SaltB64, s.masterKey, value)
	if err != nil {
		return err
	}
	s.items[name] = Item{Nonce: nonce, Ciphertext: ct}
	s.dirty = true
	return nil
}

// RetrieveSecret decrypts the item stored as name. It returns
// ok == false when the item is absent or when authenticated decryption
// fails; a decryption failure is logged but does not affect other
// items. Callers that must distinguish the two cases can consult the
// log.
func (s *SecureStore) RetrieveSecret(ctx context.Context, name string) (string, bool) {
	entry, ok := s.items[name]
	if !ok {
		return "", false
	}
	value, err := crypt.Decrypt(name, s.header.Version, s.header.SaltB64, s.masterKey, entry.Nonce, entry.Ciphertext)
	if err != nil {
		clog.FromContext(ctx).Warnf("decryption failed for item %q: %v", name, err)
		return "", false
	}
	return value, true
}

// DeleteSecret removes the item stored as name, reporting whether it
// existed.
func (s *SecureStore) DeleteSecret(name string) bool {
	if _, ok := s.items[name]; !ok {
		return false
	}
	delete(s.items, name)
	s.dirty = true
	return true
}

// RetrieveAllSecrets decrypts every stored item. Items that fail to
// decrypt are skipped (and logged by RetrieveSecret).
func (s *SecureStore) RetrieveAllSecrets(ctx context.Context) map[string]string {
	values := make(map[string]string, len(s.items))
	for name := range s.items {
		if value, ok := s.RetrieveSecret(ctx, name); ok {
			values[name] = value
		}
	}
	return values
}

// StoreAllSecrets encrypts and stores every entry of values,
// overwriting existing items. Failures are collected per item so one
// oversized value does not hide another.
func (s *SecureStore) StoreAllSecrets(values map[string]string) error {
	var errs errsx.Map
	for name, value := range values {
		if err := s.StoreSecret(name, value); err != nil {
			errs.Set(name, err)
		}
	}
	return errs.AsError()
}

// DeleteStore removes the in-memory items and the backing file. The
// store is unusable afterwards.
func (s *SecureStore) DeleteStore() error {
	s.items = map[string]Item{}
	s.header = nil
	s.valid = false
	s.deleted = true
	if err := s.file.Remove(); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreIO, err)
	}
	return nil
}

// PrepareAutoKeyExchange prepares the store for a master key rotation.
//
// It generates a fresh master key K_new, stores the current key K_old
// encrypted under K_new in the reserved item, and force-saves with the
// header still bound to K_old: the file-level integrity key remains
// K_old's until the exchange completes, while the reserved item is
// recoverable only by a holder of K_new.
//
// The returned key must be written to the external key source before
// the next open; the following ValidateMasterKey under K_new performs
// the actual exchange.
func (s *SecureStore) PrepareAutoKeyExchange(ctx context.Context) (string, error) {
	if s.deleted {
		return "", ErrStoreDeleted
	}
	log := clog.FromContext(ctx)
	log.Infof("preparing master key exchange for %s", s.file.Path())

	currentKeyStr := s.masterKeyStr()
	newKeyStr, err := crypt.GenerateMasterKey()
	if err != nil {
		return "", err
	}

	if err := s.setMasterKeyStr(newKeyStr); err != nil {
		return "", err
	}
	if err := s.StoreSecret(autoExchangeOldMasterKey, currentKeyStr); err != nil {
		s.setMasterKeyStr(currentKeyStr)
		return "", err
	}

	if err := s.setMasterKeyStr(currentKeyStr); err != nil {
		return "", err
	}
	if err := s.save(true); err != nil {
		return "", err
	}
	log.Infof("master key exchange prepared")
	return newKeyStr, nil
}

// autoKeyExchange migrates the store from the old key (currently in
// memory) to newKeyStr: every item is decrypted under the old key and
// re-encrypted with fresh nonces under the new one, the header is
// rebound, and the file is force-saved. The old key is never persisted
// in plaintext.
func (s *SecureStore) autoKeyExchange(ctx context.Context, newKeyStr string) error {
	log := clog.FromContext(ctx)
	log.Infof("exchanging master key for %s", s.file.Path())

	s.DeleteSecret(autoExchangeOldMasterKey)
	values := s.RetrieveAllSecrets(ctx)

	if err := s.setMasterKeyStr(newKeyStr); err != nil {
		return err
	}
	s.header.MKHash = s.masterKeyHash()
	if err := s.StoreAllSecrets(values); err != nil {
		return err
	}
	if err := s.save(true); err != nil {
		return err
	}
	log.Infof("master key successfully exchanged")
	return nil
}

func (s *SecureStore) masterKeyStr() string {
	return base64.StdEncoding.EncodeToString(s.masterKey)
}

func (s *SecureStore) setMasterKeyStr(keyStr string) error {
	key, err := base64.StdEncoding.DecodeString(keyStr)
	if err != nil {
		return fmt.Errorf("%w: master key is not valid base64: %w", ErrKeyUnavailable, err)
	}
	s.masterKey = key
	return nil
}

func (s *SecureStore) masterKeyHash() string {
	return crypt.HashBytes(s.masterKey)
}
