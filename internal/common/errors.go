// Package common defines shared constants and sentinel errors used across
// client and server layers of LinkVault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrVersionConflict means the server rejected a conditional manifest
	// write because someone else saved first (stale ETag / version).
	ErrVersionConflict = errors.New("version conflict")

	// ErrManifestNotFound means the vault holds no manifest yet. At load
	// time this is the valid first-save baseline, not a failure.
	ErrManifestNotFound = errors.New("manifest not found")

	// ErrServerUnavailable covers network failures and 5xx responses.
	// Local edits are kept dirty; the caller retries manually.
	ErrServerUnavailable = errors.New("server unavailable")

	// Crypto errors. Both are terminal: the vault must be re-unlocked,
	// they are never retried automatically.
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrKeysUnavailable  = errors.New("keys unavailable")

	// Sync sequencing errors.
	ErrNotLoaded      = errors.New("manifest not loaded")
	ErrSaveInProgress = errors.New("save already in progress")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
