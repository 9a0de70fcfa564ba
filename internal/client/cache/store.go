package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/dmitrijs2005/linkvault/internal/client/migrations"
	"github.com/dmitrijs2005/linkvault/internal/common"
	"github.com/dmitrijs2005/linkvault/internal/dbx"
	"github.com/dmitrijs2005/linkvault/internal/manifest"
	"github.com/pressly/goose/v3"
)

// StoredManifest is the tuple kept in the local cache: the decrypted
// manifest plus the sync metadata identifying the last-known server state.
type StoredManifest struct {
	Manifest      manifest.Manifest `json:"manifest"`
	ETag          string            `json:"etag"`
	ServerVersion int64             `json:"server_version"`
}

// legacyMeta is the shape of the old split-layout metadata record.
type legacyMeta struct {
	ETag    string `json:"etag"`
	Version int64  `json:"version"`
}

// Store is the local cache facade consumed by the sync session.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RunMigrations applies the embedded cache schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		log.Fatal("failed to set goose dialect:", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the cache database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return NewStore(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the cached manifest tuple, or nil when nothing is cached.
// It reads the current combined shape first and falls back to the legacy
// split layout (manifest and metadata under separate keys), defaulting the
// ETag to empty and the version to the manifest's own Version or 0.
// Absence is never an error; only underlying storage I/O fails.
func (s *Store) Load(ctx context.Context) (*StoredManifest, error) {
	repo := newMetadataRepo(s.db)

	data, err := repo.Get(ctx, common.CacheKeyManifest)
	if err != nil {
		return nil, err
	}
	if data != nil {
		var stored StoredManifest
		if err := json.Unmarshal(data, &stored); err == nil {
			return &stored, nil
		}
		// fall through: a corrupt combined record is treated like the
		// legacy layout below
	}

	legacy, err := repo.Get(ctx, common.CacheKeyLegacyManifest)
	if err != nil {
		return nil, err
	}
	if legacy == nil {
		return nil, nil
	}

	stored := &StoredManifest{Manifest: manifest.Decode(legacy, 0)}
	stored.ServerVersion = stored.Manifest.Version

	metaRaw, err := repo.Get(ctx, common.CacheKeyLegacyMeta)
	if err == nil && metaRaw != nil {
		var meta legacyMeta
		if json.Unmarshal(metaRaw, &meta) == nil {
			stored.ETag = meta.ETag
			if meta.Version != 0 {
				stored.ServerVersion = meta.Version
			}
		}
	}

	return stored, nil
}

// Save writes the combined shape and removes any legacy records in the
// same transaction, completing the layout migration on first save.
func (s *Store) Save(ctx context.Context, data *StoredManifest) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode cached manifest: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := newMetadataRepo(tx)
		if err := repo.Set(ctx, common.CacheKeyManifest, encoded); err != nil {
			return err
		}
		if err := repo.Delete(ctx, common.CacheKeyLegacyManifest); err != nil {
			return err
		}
		return repo.Delete(ctx, common.CacheKeyLegacyMeta)
	})
}

// SavePending stores a manifest that failed to reach the server, so the
// edit survives the process and can be pushed by a later sync.
func (s *Store) SavePending(ctx context.Context, m manifest.Manifest) error {
	encoded, err := manifest.Encode(m)
	if err != nil {
		return fmt.Errorf("encode pending manifest: %w", err)
	}
	return newMetadataRepo(s.db).Set(ctx, common.CacheKeyPendingManifest, encoded)
}

// LoadPending returns the stashed unsynced manifest, or nil when there is
// none.
func (s *Store) LoadPending(ctx context.Context) (*manifest.Manifest, error) {
	data, err := newMetadataRepo(s.db).Get(ctx, common.CacheKeyPendingManifest)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	m := manifest.Decode(data, 0)
	return &m, nil
}

// ClearPending drops the stashed unsynced manifest after it reached the
// server (or was discarded by a reload).
func (s *Store) ClearPending(ctx context.Context) error {
	return newMetadataRepo(s.db).Delete(ctx, common.CacheKeyPendingManifest)
}

// Clear removes every cached manifest record (logout/lock).
func (s *Store) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := newMetadataRepo(tx)
		for _, key := range []string{common.CacheKeyManifest, common.CacheKeyPendingManifest, common.CacheKeyLegacyManifest, common.CacheKeyLegacyMeta} {
			if err := repo.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
}
