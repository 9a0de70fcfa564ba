package manifests

import (
	"context"
)

type Repository interface {
	// Get fetches the current manifest for a vault, or
	// common.ErrManifestNotFound.
	Get(ctx context.Context, vaultID string) (*Manifest, error)

	// Upsert writes a new revision on the condition that expectedETag
	// matches the stored one (empty expectedETag means "no row yet").
	// A mismatch fails with common.ErrVersionConflict. On success the
	// returned manifest carries the fresh etag and incremented version.
	Upsert(ctx context.Context, vaultID string, ciphertext, nonce []byte, expectedETag string) (*Manifest, error)
}
