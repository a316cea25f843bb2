// Package store defines the persistence boundary for user records.
// Implementations return sentinel errors; services translate them.
package store

import (
	"context"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/models"
	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
)

// UserStore persists user records.
//
// Save creates a new record (sentinel.ErrConflict on duplicate id or email).
// Update persists an existing record (sentinel.ErrNotFound if absent).
// Lookups return sentinel.ErrNotFound when no record matches.
type UserStore interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}
