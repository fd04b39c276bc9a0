package db

import (
	"context"
	"errors"

	"github.com/ukydev/trip-planner/internal/models"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// StateCollection stores opaque state values per owner and key.
type StateCollection interface {
	GetState(ctx context.Context, owner, key string) (string, bool, error)
	SetState(ctx context.Context, owner, key, value string) error
}
