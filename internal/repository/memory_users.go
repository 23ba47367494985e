package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"va-core/internal/domain"
)

type MemoryUsersRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewMemoryUsersRepository() *MemoryUsersRepository {
	return &MemoryUsersRepository{users: map[string]*domain.User{}}
}

func copyUser(u *domain.User) *domain.User {
	out := *u
	out.LocationRestrictions = append([]string(nil), u.LocationRestrictions...)
	return &out
}

func (r *MemoryUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryUsersRepository) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	if user.Email == "" {
		return "", fmt.Errorf("email is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	r.users[user.UserID] = copyUser(user)
	return user.UserID, nil
}

func (r *MemoryUsersRepository) SetLocationRestrictions(ctx context.Context, userID string, locationIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.LocationRestrictions = append([]string(nil), locationIDs...)
	return nil
}
