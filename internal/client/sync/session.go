// Package sync implements the manifest synchronization engine: the
// fetch-decrypt-merge-encrypt-push cycle against the vault server, with
// optimistic concurrency and a bounded merge-and-retry path on conflicts.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/linkvault/internal/client/cache"
	"github.com/dmitrijs2005/linkvault/internal/client/keystore"
	"github.com/dmitrijs2005/linkvault/internal/client/vault"
	"github.com/dmitrijs2005/linkvault/internal/common"
	"github.com/dmitrijs2005/linkvault/internal/cryptox"
	"github.com/dmitrijs2005/linkvault/internal/logging"
	"github.com/dmitrijs2005/linkvault/internal/manifest"
)

// State is the sync session's lifecycle phase.
type State string

const (
	StateUnloaded     State = "unloaded"
	StateLoading      State = "loading"
	StateLoaded       State = "loaded"
	StateLoadFailed   State = "load_failed"
	StateSaving       State = "saving"
	StateSaveConflict State = "save_conflict"
	StateSaveFailed   State = "save_failed"
	StateOffline      State = "offline"
)

// SaveResult reports the server's view after a successful save.
type SaveResult struct {
	Manifest manifest.Manifest
	ETag     string
	Version  int64
}

// Session owns the in-memory manifest for the duration of a login session
// and is its single writer. UI-facing callers submit edits as pure
// transforms through Apply; every failure path leaves the previously-good
// manifest observable.
type Session struct {
	client vault.Client
	keys   keystore.Keystore
	cache  *cache.Store
	log    logging.Logger

	mu     sync.Mutex
	state  State
	base   *manifest.Manifest // last manifest adopted from the server (merge base)
	cur    *manifest.Manifest // what callers observe; diverges from base while dirty
	etag   string
	server int64
	dirty  bool
	saving bool
}

func NewSession(client vault.Client, keys keystore.Keystore, store *cache.Store, log logging.Logger) *Session {
	return &Session{
		client: client,
		keys:   keys,
		cache:  store,
		log:    log.With("component", "sync"),
		state:  StateUnloaded,
	}
}

// Status returns the current lifecycle state.
func (s *Session) Status() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dirty reports whether local edits exist that have not reached the server.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Manifest returns a copy of the manifest callers should display.
func (s *Session) Manifest() (manifest.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cur == nil {
		return manifest.Manifest{}, common.ErrNotLoaded
	}
	return s.cur.Clone(), nil
}

// ServerVersion returns the last-known server version (0 if never saved).
func (s *Session) ServerVersion() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server
}

// Load fetches, decrypts, and adopts the server's manifest. A vault with
// no manifest yet (404) yields an empty version-0 manifest and no error:
// that is the valid first-save baseline. The local cache is refreshed as a
// side effect; cache write failures are logged, never fatal.
func (s *Session) Load(ctx context.Context) error {
	s.setState(StateLoading)

	enc, err := s.client.GetManifest(ctx)
	if errors.Is(err, common.ErrManifestNotFound) {
		m := manifest.Empty()
		s.adopt(m, "", 0, StateLoaded)
		return nil
	}
	if err != nil {
		s.setState(StateLoadFailed)
		return fmt.Errorf("fetch manifest: %w", err)
	}

	m, err := s.decrypt(enc)
	if err != nil {
		s.setState(StateLoadFailed)
		return err
	}

	s.adopt(m, enc.ETag, enc.Version, StateLoaded)
	s.writeCache(ctx, m, enc.ETag, enc.Version)
	return nil
}

// LoadCached restores the session from the local cache without touching
// the network, for offline startup. An empty cache is not an error; the
// session simply stays unloaded. A stashed pending manifest (an edit that
// never reached the server) is restored as dirty state on top of the
// cached server baseline, keeping the baseline available as merge base.
func (s *Session) LoadCached(ctx context.Context) (bool, error) {
	stored, err := s.cache.Load(ctx)
	if err != nil {
		// advisory cache: a broken one reads as empty
		s.log.Warn(ctx, "cache load failed", "error", err)
		return false, nil
	}
	if stored == nil {
		return false, nil
	}

	s.adopt(stored.Manifest, stored.ETag, stored.ServerVersion, StateLoaded)

	pending, err := s.cache.LoadPending(ctx)
	if err != nil {
		s.log.Warn(ctx, "pending cache load failed", "error", err)
		return true, nil
	}
	if pending != nil {
		s.mu.Lock()
		cur := pending.Clone()
		s.cur = &cur
		s.dirty = true
		s.mu.Unlock()
	}

	return true, nil
}

// Save pushes an updated manifest with the current ETag as precondition.
//
// If the server reports a conflict, the session fetches the winner,
// three-way merges it against the last adopted base and the caller's
// update, and retries exactly once with the fresh ETag. A second conflict
// is surfaced rather than looping. Network failures leave the update in
// memory as dirty state for a manual retry. Exactly one save may be in
// flight; concurrent calls fail with common.ErrSaveInProgress.
func (s *Session) Save(ctx context.Context, updated manifest.Manifest) (*SaveResult, error) {
	s.mu.Lock()
	if s.base == nil {
		s.mu.Unlock()
		return nil, common.ErrNotLoaded
	}
	if s.saving {
		s.mu.Unlock()
		return nil, common.ErrSaveInProgress
	}
	s.saving = true
	s.state = StateSaving
	base := s.base.Clone()
	etag := s.etag
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.saving = false
		s.mu.Unlock()
	}()

	newETag, newVersion, err := s.push(ctx, updated, etag)

	if errors.Is(err, common.ErrVersionConflict) {
		var merged manifest.Manifest
		merged, newETag, newVersion, err = s.mergeAndRetry(ctx, base, updated)
		if err == nil {
			updated = merged
		}
	}

	switch {
	case err == nil:
		adopted := updated.Clone()
		adopted.Version = newVersion
		s.adopt(adopted, newETag, newVersion, StateLoaded)
		s.writeCache(ctx, adopted, newETag, newVersion)
		return &SaveResult{Manifest: adopted, ETag: newETag, Version: newVersion}, nil

	case errors.Is(err, common.ErrServerUnavailable):
		// keep the edit as dirty local state; the user retries manually
		s.mu.Lock()
		cur := updated.Clone()
		s.cur = &cur
		s.dirty = true
		s.state = StateOffline
		s.mu.Unlock()
		if perr := s.cache.SavePending(ctx, updated); perr != nil {
			s.log.Warn(ctx, "pending cache write failed", "error", perr)
		}
		return nil, err

	case errors.Is(err, common.ErrVersionConflict):
		s.setState(StateSaveConflict)
		return nil, err

	default:
		// crypto or structural failure: previously-good manifest stays
		s.setState(StateSaveFailed)
		return nil, err
	}
}

// Retry re-attempts the last dirty save after an offline failure.
func (s *Session) Retry(ctx context.Context) (*SaveResult, error) {
	s.mu.Lock()
	if !s.dirty || s.cur == nil {
		s.mu.Unlock()
		return nil, common.ErrNotLoaded
	}
	pending := s.cur.Clone()
	s.mu.Unlock()

	return s.Save(ctx, pending)
}

// Apply runs a pure mutation against the currently observed manifest and
// saves the result. This is the single-writer contract used by the CLI:
// mutations never hold their own manifest copy.
func (s *Session) Apply(ctx context.Context, fn func(manifest.Manifest) (manifest.Manifest, error)) (*SaveResult, error) {
	snapshot, err := s.Manifest()
	if err != nil {
		return nil, err
	}

	updated, err := fn(snapshot)
	if err != nil {
		return nil, err
	}

	return s.Save(ctx, updated)
}

// Reload re-runs Load, discarding any unsaved local state.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return common.ErrSaveInProgress
	}
	s.dirty = false
	s.mu.Unlock()

	return s.Load(ctx)
}

// Clear drops all session state and the local cache (logout/lock).
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.base = nil
	s.cur = nil
	s.etag = ""
	s.server = 0
	s.dirty = false
	s.state = StateUnloaded
	s.mu.Unlock()

	if err := s.cache.Clear(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// push encrypts and writes one manifest revision.
func (s *Session) push(ctx context.Context, m manifest.Manifest, etag string) (string, int64, error) {
	plaintext, err := manifest.Encode(m)
	if err != nil {
		return "", 0, fmt.Errorf("encode manifest: %w", err)
	}
	defer common.WipeByteArray(plaintext)

	mak, err := s.keys.GetMAK()
	if err != nil {
		return "", 0, err
	}
	defer common.WipeByteArray(mak)

	aadCtx, err := s.keys.GetAadContext()
	if err != nil {
		return "", 0, err
	}

	ciphertext, nonce, err := cryptox.EncryptManifest(plaintext, mak, cryptox.ManifestAAD(aadCtx.UserID, aadCtx.VaultID))
	if err != nil {
		return "", 0, fmt.Errorf("encrypt manifest: %w", err)
	}

	return s.client.PutManifest(ctx, ciphertext, nonce, etag)
}

// mergeAndRetry resolves one optimistic-concurrency conflict: fetch the
// winning revision, merge, push once more with the fresh ETag.
func (s *Session) mergeAndRetry(ctx context.Context, base, local manifest.Manifest) (manifest.Manifest, string, int64, error) {
	s.log.Info(ctx, "save conflict, merging against server revision")

	enc, err := s.client.GetManifest(ctx)
	if err != nil {
		return manifest.Manifest{}, "", 0, fmt.Errorf("fetch conflicting manifest: %w", err)
	}

	remote, err := s.decrypt(enc)
	if err != nil {
		return manifest.Manifest{}, "", 0, err
	}

	res, err := manifest.ThreeWayMerge(base, local, remote)
	if err != nil {
		return manifest.Manifest{}, "", 0, err
	}
	if res.HasConflicts {
		s.log.Warn(ctx, "merge resolved conflicts in favor of remote", "conflicts", res.Conflicts)
	}

	newETag, newVersion, err := s.push(ctx, res.Merged, enc.ETag)
	if err != nil {
		return manifest.Manifest{}, "", 0, err
	}

	return res.Merged, newETag, newVersion, nil
}

// decrypt turns a wire manifest into a decoded one. The MAK copy and the
// plaintext buffer are wiped before returning, on every path.
func (s *Session) decrypt(enc *vault.EncryptedManifest) (manifest.Manifest, error) {
	mak, err := s.keys.GetMAK()
	if err != nil {
		return manifest.Manifest{}, err
	}
	defer common.WipeByteArray(mak)

	aadCtx, err := s.keys.GetAadContext()
	if err != nil {
		return manifest.Manifest{}, err
	}

	plaintext, err := cryptox.DecryptManifest(enc.Ciphertext, enc.Nonce, mak, cryptox.ManifestAAD(aadCtx.UserID, aadCtx.VaultID))
	if err != nil {
		return manifest.Manifest{}, err
	}
	defer common.WipeByteArray(plaintext)

	return manifest.Decode(plaintext, enc.Version), nil
}

// adopt installs a manifest as the new single source of truth.
func (s *Session) adopt(m manifest.Manifest, etag string, version int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	base := m.Clone()
	cur := m.Clone()
	s.base = &base
	s.cur = &cur
	s.etag = etag
	s.server = version
	s.dirty = false
	s.state = state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// writeCache refreshes the advisory local cache; failures are logged only.
// Adopting a server revision supersedes any stashed pending edit.
func (s *Session) writeCache(ctx context.Context, m manifest.Manifest, etag string, version int64) {
	err := s.cache.Save(ctx, &cache.StoredManifest{Manifest: m, ETag: etag, ServerVersion: version})
	if err != nil {
		s.log.Warn(ctx, "cache write failed", "error", err)
	}
	if err := s.cache.ClearPending(ctx); err != nil {
		s.log.Warn(ctx, "pending cache clear failed", "error", err)
	}
}
