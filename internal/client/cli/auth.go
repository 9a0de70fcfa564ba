package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/linkvault/internal/client/keystore"
	"github.com/dmitrijs2005/linkvault/internal/client/sync"
	"github.com/dmitrijs2005/linkvault/internal/common"
	"github.com/dmitrijs2005/linkvault/internal/cryptox"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
			if err != nil {
				return err
			}

			password, err := getPassword(os.Stdout)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			salt := common.GenerateRandByteArray(32)
			key := cryptox.DeriveMasterKey(password, salt)
			defer common.WipeByteArray(key)
			verifier := cryptox.MakeVerifier(key)

			if err := a.client.Register(ctx, username, salt, verifier); err != nil {
				if errors.Is(err, common.ErrorAlreadyExists) {
					return fmt.Errorf("username %q is already taken", username)
				}
				return err
			}

			fmt.Println("Account created. Run 'linkvault login' to sign in.")
			return nil
		},
	}
}

func (a *App) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and start a vault session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
			if err != nil {
				return err
			}

			password, err := getPassword(os.Stdout)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			salt, err := a.client.GetSalt(ctx, username)
			if err != nil {
				return err
			}

			key := cryptox.DeriveMasterKey(password, salt)
			defer common.WipeByteArray(key)
			verifier := cryptox.MakeVerifier(key)

			session, err := a.client.Login(ctx, username, verifier)
			if err != nil {
				if errors.Is(err, common.ErrorUnauthorized) {
					return errors.New("invalid username or password")
				}
				return err
			}

			state := &sessionState{
				Username: username,
				Salt:     salt,
				Verifier: verifier,
				Token:    session.Token,
				UserID:   session.UserID,
				VaultID:  session.VaultID,
			}
			if err := a.saveSessionState(state); err != nil {
				return err
			}

			fmt.Printf("Logged in as %s.\n", username)
			return nil
		},
	}
}

func (a *App) lockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lock",
		Short: "End the session and wipe local vault state",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.keys.Lock()
			if err := a.session.Clear(cmd.Context()); err != nil {
				return err
			}
			if err := a.clearSessionState(); err != nil {
				return err
			}
			fmt.Println("Vault locked.")
			return nil
		},
	}
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and sync status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			state, err := a.loadSessionState()
			if errors.Is(err, common.ErrorNotFound) {
				fmt.Println("Not logged in.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("User: %s\n", state.Username)

			if err := a.client.Ping(ctx); err != nil {
				fmt.Println("Server: unreachable")
			} else {
				fmt.Println("Server: online")
			}

			ok, err := a.session.LoadCached(ctx)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Cache: empty")
				return nil
			}

			m, err := a.session.Manifest()
			if err != nil {
				return err
			}
			fmt.Printf("Cached manifest: version %d, %d bookmarks, %d tags, %d collections\n",
				a.session.ServerVersion(), len(m.Items), len(m.Tags), len(m.Collections))
			return nil
		},
	}
}

func (a *App) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the latest manifest from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if _, err := a.unlock(ctx); err != nil {
				return err
			}

			// push any offline edit stashed by a previous run first, so it
			// merges against the server instead of being discarded
			ok, err := a.session.LoadCached(ctx)
			if err != nil {
				return err
			}
			if ok && a.session.Dirty() {
				res, err := a.session.Retry(ctx)
				if err != nil {
					return describeSyncError(err)
				}
				fmt.Printf("Pushed offline changes (version %d).\n", res.Version)
			} else if err := a.session.Load(ctx); err != nil {
				return describeSyncError(err)
			}

			m, err := a.session.Manifest()
			if err != nil {
				return err
			}
			fmt.Printf("Synced: version %d, %d bookmarks, %d tags, %d collections\n",
				a.session.ServerVersion(), len(m.Items), len(m.Tags), len(m.Collections))
			return nil
		},
	}
}

// unlock restores the persisted session and unlocks the keystore with the
// user's password. It does not touch the network.
func (a *App) unlock(ctx context.Context) (*sessionState, error) {
	state, err := a.loadSessionState()
	if errors.Is(err, common.ErrorNotFound) {
		return nil, errors.New("not logged in: run 'linkvault login' first")
	}
	if err != nil {
		return nil, err
	}

	a.client.SetToken(state.Token)

	if a.keys.IsUnlocked() {
		return state, nil
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return nil, err
	}

	err = a.keys.Unlock(password, state.Salt, state.Verifier,
		keystore.AadContext{UserID: state.UserID, VaultID: state.VaultID})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, errors.New("wrong password")
		}
		return nil, err
	}

	return state, nil
}

// loadForEdit prepares the session for a mutation: unlock, then load the
// server manifest, falling back to the local cache when offline.
func (a *App) loadForEdit(ctx context.Context) error {
	if _, err := a.unlock(ctx); err != nil {
		return err
	}

	err := a.session.Load(ctx)
	if errors.Is(err, common.ErrServerUnavailable) {
		ok, cacheErr := a.session.LoadCached(ctx)
		if cacheErr == nil && ok {
			fmt.Println("Server unreachable; editing the cached manifest.")
			return nil
		}
		return describeSyncError(err)
	}
	if err != nil {
		return describeSyncError(err)
	}
	return nil
}

func describeSyncError(err error) error {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return errors.New("session expired: run 'linkvault login' again")
	case errors.Is(err, common.ErrDecryptionFailed):
		return errors.New("could not decrypt the vault: wrong key or corrupted data")
	case errors.Is(err, common.ErrServerUnavailable):
		return errors.New("server unreachable: changes are kept locally, run 'linkvault sync' later")
	case errors.Is(err, common.ErrVersionConflict):
		return errors.New("the vault changed on another device in a way that could not be merged automatically: run 'linkvault sync' and retry")
	default:
		return err
	}
}

// report prints the outcome of a mutation save.
func (a *App) report(res *sync.SaveResult, err error) error {
	if err != nil {
		return describeSyncError(err)
	}
	fmt.Printf("Saved (version %d).\n", res.Version)
	return nil
}
