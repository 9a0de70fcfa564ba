package manifests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/linkvault/internal/common"
	"github.com/dmitrijs2005/linkvault/internal/dbx"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	return &PostgresRepository{db: db}, nil
}

func (r *PostgresRepository) Get(ctx context.Context, vaultID string) (*Manifest, error) {
	query :=
		`SELECT vault_id, ciphertext, nonce, etag, version, updated_at FROM manifests
		 WHERE vault_id = $1
		 `

	m := &Manifest{}
	err := r.db.QueryRowContext(ctx, query, vaultID).
		Scan(&m.VaultID, &m.Ciphertext, &m.Nonce, &m.ETag, &m.Version, &m.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrManifestNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %v", err)
	}

	return m, nil
}

// Upsert performs the conditional write inside one transaction: the row is
// locked, the stored etag compared against the caller's expectation, and
// only then replaced. Concurrent savers serialize on the row lock, so the
// loser always observes the winner's etag and fails with a conflict.
func (r *PostgresRepository) Upsert(ctx context.Context, vaultID string, ciphertext, nonce []byte, expectedETag string) (*Manifest, error) {

	var out *Manifest

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {

		var currentETag string
		var currentVersion int64

		err := tx.QueryRowContext(ctx,
			`SELECT etag, version FROM manifests WHERE vault_id = $1 FOR UPDATE`,
			vaultID).Scan(&currentETag, &currentVersion)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			if expectedETag != "" {
				return common.ErrVersionConflict
			}
			currentVersion = 0
		case err != nil:
			return fmt.Errorf("error performing sql request: %v", err)
		default:
			if expectedETag != currentETag {
				return common.ErrVersionConflict
			}
		}

		m := &Manifest{
			VaultID:    vaultID,
			Ciphertext: ciphertext,
			Nonce:      nonce,
			ETag:       uuid.NewString(),
			Version:    currentVersion + 1,
			UpdatedAt:  time.Now().UTC(),
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO manifests (vault_id, ciphertext, nonce, etag, version, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (vault_id) DO UPDATE
			 SET ciphertext = EXCLUDED.ciphertext,
			     nonce = EXCLUDED.nonce,
			     etag = EXCLUDED.etag,
			     version = EXCLUDED.version,
			     updated_at = EXCLUDED.updated_at`,
			m.VaultID, m.Ciphertext, m.Nonce, m.ETag, m.Version, m.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error performing sql request: %v", err)
		}

		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
