// Package filex contains small filesystem helpers for client-side storage.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDataDir resolves and creates the directory holding the client's
// local cache database. An empty dirName resolves under the user home
// (~/.linkvault).
func EnsureDataDir(dirName string) (string, error) {
	dir := dirName
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".linkvault")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
