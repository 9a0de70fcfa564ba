// Package cryptox implements the cryptographic primitives of LinkVault:
// the AES-GCM codec protecting the manifest, the argon2id key derivation
// used during unlock, and the verifier scheme that lets the server check
// credentials without ever seeing the password.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"github.com/dmitrijs2005/linkvault/internal/common"
	"golang.org/x/crypto/argon2"
)

const nonceSize = 12

// MakeVerifier derives the value stored server-side to verify a master key
// without revealing it.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// DeriveMasterKey stretches a password and salt into a 32-byte key with
// argon2id. The result is used both as login material (via MakeVerifier)
// and as the manifest authentication key (MAK).
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// ManifestAAD builds the associated-data string binding a manifest
// ciphertext to one (user, vault) context. Ciphertext replayed against a
// different user or vault fails authentication at decrypt time.
func ManifestAAD(userID, vaultID string) []byte {
	return []byte(fmt.Sprintf("linkvault:manifest:v1:%s:%s", userID, vaultID))
}

// EncryptManifest encrypts the serialized manifest with AES-256-GCM,
// binding aad into the authentication tag.
//
// A new random 12-byte nonce is generated for each call; ciphertext and
// nonce are returned separately. The key must be 32 bytes (AES-256).
func EncryptManifest(plaintext, key, aad []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(nonceSize)
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, aad)

	return ciphertext, nonce, nil
}

// DecryptManifest authenticates and decrypts a manifest ciphertext.
//
// Any failure (wrong key, wrong aad, truncated input, tag mismatch)
// yields common.ErrDecryptionFailed and no output; GCM never releases
// partial plaintext. The caller owns the returned buffer and must wipe it
// (common.WipeByteArray) once the manifest has been decoded.
func DecryptManifest(ciphertext, nonce, key, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}

	if len(nonce) != aesgcm.NonceSize() {
		return nil, common.ErrDecryptionFailed
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}

	return plaintext, nil
}
