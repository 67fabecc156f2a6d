package securestore

import "encoding/json"

// Item is one encrypted secret: the AES-GCM nonce and ciphertext of a
// single encryption, both Base64-encoded.
type Item struct {
	Nonce      string `json:"n"`
	Ciphertext string `json:"ct"`
}

// document is the persisted store layout.
type document struct {
	Header *SecurityHeader `json:"_header"`
	Items  map[string]Item `json:"items"`
}

// rawDocument defers header decoding so field presence can be checked.
type rawDocument struct {
	Header json.RawMessage `json:"_header"`
	Items  map[string]Item `json:"items"`
}
