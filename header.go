package securestore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/confkit/securestore/internal/crypt"
)

// SecurityHeader describes how a store was created and protected: the
// key derivation scheme and salt, a hash of the master key the items
// were encrypted under, and an HMAC over the whole item set. The salt
// and hashes are not secret; the header is persisted as-is.
type SecurityHeader struct {
	Version     int    `json:"version"`
	KDF         string `json:"kdf"`
	SaltB64     string `json:"salt_b64"`
	CreatedAt   int64  `json:"created_at"`
	MKHash      string `json:"mk_hash"`
	ItemsMACB64 string `json:"items_mac_b64"`
	ItemsMACAlg string `json:"items_mac_alg"`
}

// headerFields must all be present in a persisted document, even when
// their value is empty (a fresh header carries empty MAC fields until
// the first save completes).
var headerFields = []string{
	"version", "kdf", "salt_b64", "created_at", "mk_hash", "items_mac_b64", "items_mac_alg",
}

// newHeader creates the header for a fresh store bound to the hash of
// the supplied master key. The items MAC is set on first save.
func newHeader(mkHash string, now time.Time) (*SecurityHeader, error) {
	salt, err := crypt.GenerateSalt()
	if err != nil {
		return nil, err
	}
	return &SecurityHeader{
		Version:   storeVersion,
		KDF:       crypt.KDFAlgorithm,
		SaltB64:   salt,
		CreatedAt: now.Unix(),
		MKHash:    mkHash,
	}, nil
}

// parseHeader decodes a persisted header, requiring every field to be
// present.
func parseHeader(raw json.RawMessage) (*SecurityHeader, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHeaderFormat, err)
	}
	for _, name := range headerFields {
		if _, ok := fields[name]; !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrHeaderFormat, name)
		}
	}
	var h SecurityHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrHeaderFormat, err)
	}
	return &h, nil
}

// UpdateItemsMAC recomputes the items MAC under masterKey and records
// it together with the MAC algorithm name.
func (h *SecurityHeader) UpdateItemsMAC(items map[string]Item, masterKey []byte) error {
	mac, err := crypt.ComputeItemsMAC(itemsForMAC(items), h.Version, masterKey, h.SaltB64)
	if err != nil {
		return err
	}
	h.ItemsMACAlg = crypt.MACAlgorithm
	h.ItemsMACB64 = mac
	return nil
}

// VerifyItemsMAC recomputes the items MAC under masterKey and fails
// with ErrIntegrity on any mismatch. An unset MAC or a foreign MAC
// algorithm counts as tampering, not as unknown state.
func (h *SecurityHeader) VerifyItemsMAC(items map[string]Item, masterKey []byte) error {
	if h.ItemsMACAlg != crypt.MACAlgorithm {
		return fmt.Errorf("%w: MAC algorithm mismatch", ErrIntegrity)
	}
	if !crypt.VerifyItemsMAC(itemsForMAC(items), h.ItemsMACB64, h.Version, masterKey, h.SaltB64) {
		return fmt.Errorf("%w: items MAC mismatch", ErrIntegrity)
	}
	return nil
}

// itemsForMAC converts the item map to the canonical nested-map form
// the MAC is computed over.
func itemsForMAC(items map[string]Item) map[string]map[string]string {
	m := make(map[string]map[string]string, len(items))
	for name, item := range items {
		m[name] = map[string]string{
			itemKeyNonce:      item.Nonce,
			itemKeyCiphertext: item.Ciphertext,
		}
	}
	return m
}
