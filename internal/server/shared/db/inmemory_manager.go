package db

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/linkvault/internal/server/manifests"
	"github.com/dmitrijs2005/linkvault/internal/server/users"
)

type InMemoryRepositoryManager struct {
	users     users.Repository
	manifests manifests.Repository
}

func (m *InMemoryRepositoryManager) Conn() *sql.DB {
	return nil
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *InMemoryRepositoryManager) Manifests() manifests.Repository {
	return m.manifests
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return &InMemoryRepositoryManager{
		users:     users.NewInMemoryRepository(),
		manifests: manifests.NewInMemoryRepository(),
	}
}
