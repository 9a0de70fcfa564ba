// Package keystore holds the session-scoped key material supplied to the
// sync engine: the manifest authentication key (MAK) and the AAD context
// binding ciphertext to one (user, vault) pair. The sync engine itself
// never caches raw key bytes; it asks the keystore for a copy per
// encrypt/decrypt call and wipes it afterwards.
package keystore

import (
	"crypto/subtle"
	"slices"
	"sync"

	"github.com/dmitrijs2005/linkvault/internal/common"
	"github.com/dmitrijs2005/linkvault/internal/cryptox"
)

// AadContext identifies the vault a manifest ciphertext belongs to.
type AadContext struct {
	UserID  string
	VaultID string
}

// Keystore is the collaborator contract consumed by the sync session.
type Keystore interface {
	// GetMAK returns a copy of the manifest authentication key. Callers
	// own the copy and must wipe it after use. Fails with
	// common.ErrKeysUnavailable while locked.
	GetMAK() ([]byte, error)

	// GetAadContext returns the (user, vault) identifiers for AAD
	// construction. Fails with common.ErrKeysUnavailable while locked.
	GetAadContext() (AadContext, error)

	// IsUnlocked reports whether key material is currently available.
	IsUnlocked() bool
}

// SessionKeystore is the in-memory Keystore for one login session.
type SessionKeystore struct {
	mu  sync.Mutex
	mak []byte
	ctx AadContext
}

func NewSessionKeystore() *SessionKeystore {
	return &SessionKeystore{}
}

// Unlock derives the MAK from password and salt and checks it against the
// stored verifier in constant time. On success the key is retained for the
// session; on mismatch nothing is retained and common.ErrorUnauthorized is
// returned. The password buffer is wiped either way.
func (k *SessionKeystore) Unlock(password, salt, verifier []byte, ctx AadContext) error {
	defer common.WipeByteArray(password)

	key := cryptox.DeriveMasterKey(password, salt)
	candidate := cryptox.MakeVerifier(key)

	if subtle.ConstantTimeCompare(verifier, candidate) != 1 {
		common.WipeByteArray(key)
		return common.ErrorUnauthorized
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	common.WipeByteArray(k.mak)
	k.mak = key
	k.ctx = ctx
	return nil
}

// Lock wipes the retained key material and forgets the AAD context.
func (k *SessionKeystore) Lock() {
	k.mu.Lock()
	defer k.mu.Unlock()
	common.WipeByteArray(k.mak)
	k.mak = nil
	k.ctx = AadContext{}
}

func (k *SessionKeystore) GetMAK() ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.mak == nil {
		return nil, common.ErrKeysUnavailable
	}
	return slices.Clone(k.mak), nil
}

func (k *SessionKeystore) GetAadContext() (AadContext, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.mak == nil {
		return AadContext{}, common.ErrKeysUnavailable
	}
	return k.ctx, nil
}

func (k *SessionKeystore) IsUnlocked() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.mak != nil
}
