package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrUserExists   = errors.New("user exists")
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository stores user accounts. Emails are stored lower-cased and are
// unique; Create returns ErrUserExists on a duplicate and the getters return
// ErrUserNotFound when nothing matches.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
