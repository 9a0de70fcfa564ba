package manifests

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/linkvault/internal/common"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the current manifest for a vault.
func (s *Service) Get(ctx context.Context, vaultID string) (*Manifest, error) {
	m, err := s.repo.Get(ctx, vaultID)
	if err != nil {
		if errors.Is(err, common.ErrManifestNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error getting manifest: %v", err)
	}
	return m, nil
}

// Put writes a new manifest revision under the optimistic-concurrency rule:
// the write succeeds only if expectedETag matches the stored revision.
func (s *Service) Put(ctx context.Context, vaultID string, ciphertext, nonce []byte, expectedETag string) (*Manifest, error) {
	if len(ciphertext) == 0 || len(nonce) == 0 {
		return nil, fmt.Errorf("empty ciphertext or nonce")
	}

	m, err := s.repo.Upsert(ctx, vaultID, ciphertext, nonce, expectedETag)
	if err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("error saving manifest: %v", err)
	}
	return m, nil
}
