package users

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/linkvault/internal/common"
)

// InMemoryRepository keeps users in a map, for tests and local runs.
type InMemoryRepository struct {
	mu    sync.Mutex
	users map[string]*User // keyed by username
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*User)}
}

func (r *InMemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}

	cp := *user
	cp.ID = uuid.NewString()
	r.users[cp.UserName] = &cp

	out := cp
	return &out, nil
}

func (r *InMemoryRepository) GetUserByLogin(ctx context.Context, login string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[login]
	if !ok {
		return nil, common.ErrorNotFound
	}

	cp := *user
	return &cp, nil
}
