package repository

import (
	"context"

	"va-core/internal/domain"
)

// UsersRepository is the minimal user surface this core needs: who a user is
// and which locations their access is restricted to.
type UsersRepository interface {
	// GetUser returns the user with LocationRestrictions populated.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	CreateUser(ctx context.Context, user *domain.User) (string, error)

	// SetLocationRestrictions replaces the user's restriction set. An empty
	// set means unrestricted (national) access.
	SetLocationRestrictions(ctx context.Context, userID string, locationIDs []string) error
}
