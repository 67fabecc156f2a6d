// Package crypt implements the cryptographic primitives of the secure
// store: HKDF-SHA256 subkey derivation, AES-256-GCM encryption of
// individual items with contextual associated data, and an HMAC-SHA256
// integrity code over the canonicalized item set.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KDFAlgorithm names the key derivation scheme recorded in store headers.
	KDFAlgorithm = "HKDF-SHA256"
	// MACAlgorithm names the items integrity scheme recorded in store headers.
	MACAlgorithm = "HMAC-SHA256"

	// KeySize is the master key and derived key size (AES-256).
	KeySize = 32
	// SaltSize is the per-store HKDF salt size.
	SaltSize = 32
	// NonceSize is the AES-GCM nonce size.
	NonceSize = 12
	// MaxSecretLen is the maximum plaintext length in bytes.
	MaxSecretLen = 1000
)

// ErrValueTooLong is returned by Encrypt for plaintexts over MaxSecretLen bytes.
var ErrValueTooLong = fmt.Errorf("secret value exceeds %d bytes", MaxSecretLen)

type purpose string

const (
	purposeEnc purpose = "enc-key"
	purposeMAC purpose = "mac-key"
)

// HashBytes returns the Base64-encoded SHA-256 digest of value.
func HashBytes(value []byte) string {
	sum := sha256.Sum256(value)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// GenerateMasterKey returns a fresh random 32-byte key, Base64-encoded.
func GenerateMasterKey() (string, error) {
	return generateKey(KeySize)
}

// GenerateSalt returns a fresh random 32-byte HKDF salt, Base64-encoded.
func GenerateSalt() (string, error) {
	return generateKey(SaltSize)
}

func generateKey(size int) (string, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// deriveKey derives a purpose-separated 32-byte subkey from the master
// key and the store salt. The purpose is bound through the HKDF info
// parameter, so the enc and mac subkeys are independent even though
// they share master key and salt.
func deriveKey(p purpose, version int, masterKey, salt []byte) ([]byte, error) {
	info := fmt.Sprintf("SecureStore|%s|v%d", p, version)
	r := hkdf.New(sha256.New, masterKey, salt, []byte(info))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("key derivation failed: %w", err)
	}
	return key, nil
}

// aad binds the item name, store version, salt and master-key hash
// into the GCM authentication tag. A ciphertext moved between items,
// stores or key epochs fails authentication.
func aad(name string, version int, saltB64, mkHash string) []byte {
	return []byte(fmt.Sprintf("SecureStore:v%d|%s|%s|%s", version, saltB64, mkHash, name))
}

func newGCM(version int, masterKey []byte, saltB64 string) (cipher.AEAD, error) {
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("invalid salt encoding: %w", err)
	}
	key, err := deriveKey(purposeEnc, version, masterKey, salt)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt encrypts one item value under the enc subkey derived from
// masterKey. It returns the fresh random nonce and the ciphertext,
// both Base64-encoded.
func Encrypt(name string, version int, saltB64 string, masterKey []byte, value string) (nonceB64, ctB64 string, err error) {
	plaintext := []byte(value)
	if len(plaintext) > MaxSecretLen {
		return "", "", ErrValueTooLong
	}
	gcm, err := newGCM(version, masterKey, saltB64)
	if err != nil {
		return "", "", err
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", "", fmt.Errorf("nonce generation failed: %w", err)
	}
	ct := gcm.Seal(nil, nonce, plaintext, aad(name, version, saltB64, HashBytes(masterKey)))
	return base64.StdEncoding.EncodeToString(nonce), base64.StdEncoding.EncodeToString(ct), nil
}

// Decrypt reverses Encrypt. It fails with an authentication error if
// any byte of the nonce, ciphertext or AAD context was altered.
func Decrypt(name string, version int, saltB64 string, masterKey []byte, nonceB64, ctB64 string) (string, error) {
	gcm, err := newGCM(version, masterKey, saltB64)
	if err != nil {
		return "", err
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return "", fmt.Errorf("invalid nonce encoding: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	plaintext, err := gcm.Open(nil, nonce, ct, aad(name, version, saltB64, HashBytes(masterKey)))
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}

// canonicalizeItems produces a deterministic byte string for the item
// map: JSON with lexicographically sorted keys and no extraneous
// whitespace (encoding/json sorts map keys at every level).
func canonicalizeItems(items map[string]map[string]string) ([]byte, error) {
	if items == nil {
		items = map[string]map[string]string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize items: %w", err)
	}
	return data, nil
}

// ComputeItemsMAC computes HMAC-SHA256 over the canonicalized item map
// with the mac subkey derived from masterKey, Base64-encoded.
func ComputeItemsMAC(items map[string]map[string]string, version int, masterKey []byte, saltB64 string) (string, error) {
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return "", fmt.Errorf("invalid salt encoding: %w", err)
	}
	key, err := deriveKey(purposeMAC, version, masterKey, salt)
	if err != nil {
		return "", err
	}
	canonical, err := canonicalizeItems(items)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(canonical)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// VerifyItemsMAC recomputes the items MAC and compares it against
// macB64 in constant time. An empty or undecodable MAC verifies false.
func VerifyItemsMAC(items map[string]map[string]string, macB64 string, version int, masterKey []byte, saltB64 string) bool {
	if macB64 == "" {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(macB64)
	if err != nil {
		return false
	}
	got, err := ComputeItemsMAC(items, version, masterKey, saltB64)
	if err != nil {
		return false
	}
	gotRaw, err := base64.StdEncoding.DecodeString(got)
	if err != nil {
		return false
	}
	return hmac.Equal(gotRaw, want)
}
