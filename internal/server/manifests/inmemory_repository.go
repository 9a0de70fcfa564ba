package manifests

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/linkvault/internal/common"
)

// InMemoryRepository keeps manifests in a map, for tests and local runs.
// It applies the same conditional-write rule as the postgres repository.
type InMemoryRepository struct {
	mu        sync.Mutex
	manifests map[string]*Manifest // keyed by vault id
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{manifests: make(map[string]*Manifest)}
}

func (r *InMemoryRepository) Get(ctx context.Context, vaultID string) (*Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.manifests[vaultID]
	if !ok {
		return nil, common.ErrManifestNotFound
	}

	cp := *m
	cp.Ciphertext = slices.Clone(m.Ciphertext)
	cp.Nonce = slices.Clone(m.Nonce)
	return &cp, nil
}

func (r *InMemoryRepository) Upsert(ctx context.Context, vaultID string, ciphertext, nonce []byte, expectedETag string) (*Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var version int64

	current, ok := r.manifests[vaultID]
	if ok {
		if expectedETag != current.ETag {
			return nil, common.ErrVersionConflict
		}
		version = current.Version
	} else if expectedETag != "" {
		return nil, common.ErrVersionConflict
	}

	m := &Manifest{
		VaultID:    vaultID,
		Ciphertext: slices.Clone(ciphertext),
		Nonce:      slices.Clone(nonce),
		ETag:       uuid.NewString(),
		Version:    version + 1,
		UpdatedAt:  time.Now().UTC(),
	}
	r.manifests[vaultID] = m

	cp := *m
	return &cp, nil
}
