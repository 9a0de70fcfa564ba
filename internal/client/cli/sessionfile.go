package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/linkvault/internal/common"
)

const sessionFileName = "session.json"

// sessionState is the login state persisted between CLI invocations. The
// master key itself is never written to disk; it is re-derived from the
// password on demand using the stored salt, and checked against the
// verifier (the same one the server holds).
type sessionState struct {
	Username string `json:"username"`
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	VaultID  string `json:"vault_id"`
}

func (a *App) sessionFilePath() string {
	return filepath.Join(a.dataDir, sessionFileName)
}

func (a *App) saveSessionState(s *sessionState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(a.sessionFilePath(), data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// loadSessionState reads the persisted login state, or
// common.ErrorNotFound if the user never logged in (or locked the vault).
func (a *App) loadSessionState() (*sessionState, error) {
	data, err := os.ReadFile(a.sessionFilePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	s := &sessionState{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

func (a *App) clearSessionState() error {
	err := os.Remove(a.sessionFilePath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
