// Package cli implements the linkvault command-line client. Commands wire
// the keystore, vault API client, local cache, and sync session together;
// all bookmark/tag/collection logic lives in the manifest package and is
// invoked through Session.Apply.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/linkvault/internal/client/cache"
	"github.com/dmitrijs2005/linkvault/internal/client/config"
	"github.com/dmitrijs2005/linkvault/internal/client/keystore"
	"github.com/dmitrijs2005/linkvault/internal/client/sync"
	"github.com/dmitrijs2005/linkvault/internal/client/vault"
	"github.com/dmitrijs2005/linkvault/internal/filex"
	"github.com/dmitrijs2005/linkvault/internal/logging"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	dataDir string
	client  *vault.HTTPClient
	keys    *keystore.SessionKeystore
	store   *cache.Store
	session *sync.Session
	reader  *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	dataDir, err := filex.EnsureDataDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir init error: %w", err)
	}

	store, err := cache.Open(ctx, filepath.Join(dataDir, "vault.db"))
	if err != nil {
		return nil, fmt.Errorf("cache init error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stderr)
	client := vault.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	keys := keystore.NewSessionKeystore()

	return &App{
		config:  c,
		logger:  logger,
		dataDir: dataDir,
		client:  client,
		keys:    keys,
		store:   store,
		session: sync.NewSession(client, keys, store, logger),
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Close() error {
	a.keys.Lock()
	return a.store.Close()
}

// Run executes the command tree.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()
	return a.rootCmd().ExecuteContext(ctx)
}
