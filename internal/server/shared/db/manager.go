// Package db wires repositories to their storage backend and exposes them
// behind one manager interface so services stay backend-agnostic.
package db

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/linkvault/internal/server/manifests"
	"github.com/dmitrijs2005/linkvault/internal/server/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Manifests() manifests.Repository
}
