// Package vault implements the client side of the vault server API: auth,
// and conditional GET/PUT of the encrypted manifest.
package vault

import (
	"context"
	"time"
)

// EncryptedManifest is the wire form of the manifest as the server stores
// it: opaque ciphertext plus the optimistic-concurrency tokens.
type EncryptedManifest struct {
	Ciphertext []byte
	Nonce      []byte
	ETag       string
	Version    int64
	UpdatedAt  time.Time
}

// Session is the result of a successful login.
type Session struct {
	Token   string
	UserID  string
	VaultID string
}

// Client is the vault server contract consumed by the sync session and
// the CLI.
type Client interface {
	// Register creates an account. The server stores salt and verifier;
	// it never sees the password.
	Register(ctx context.Context, username string, salt, verifier []byte) error

	// GetSalt fetches the registered salt for a username so the client
	// can derive the master key before login.
	GetSalt(ctx context.Context, username string) ([]byte, error)

	// Login exchanges a verifier for a bearer session.
	Login(ctx context.Context, username string, verifier []byte) (*Session, error)

	// GetManifest fetches the current encrypted manifest. A vault with
	// no manifest yet fails with common.ErrManifestNotFound.
	GetManifest(ctx context.Context) (*EncryptedManifest, error)

	// PutManifest writes a new manifest version. A non-empty etag is
	// sent as an If-Match precondition; a stale etag fails with
	// common.ErrVersionConflict. Returns the new etag and version.
	PutManifest(ctx context.Context, ciphertext, nonce []byte, etag string) (string, int64, error)

	// Ping checks server liveness.
	Ping(ctx context.Context) error
}
