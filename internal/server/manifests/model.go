package manifests

import "time"

// Manifest is one encrypted manifest revision as stored per vault. The
// server never sees plaintext; ciphertext and nonce are opaque.
type Manifest struct {
	VaultID    string
	Ciphertext []byte
	Nonce      []byte
	ETag       string
	Version    int64
	UpdatedAt  time.Time
}
