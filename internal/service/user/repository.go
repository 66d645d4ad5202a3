package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/mailing-admin/internal/domain"
)

// Repository defines the data access contract for users.
type Repository interface {
	// Get returns a user with roles. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByEmail looks a user up by login email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	Create(ctx context.Context, u *domain.User) error
	// Update overwrites the profile fields of u.
	Update(ctx context.Context, u *domain.User) error
	SetAvatar(ctx context.Context, id uuid.UUID, url string) error

	// EmailTaken reports whether another user (other than excludeID) uses email.
	EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
	// UsernameTaken reports whether another user (other than excludeID) uses username.
	UsernameTaken(ctx context.Context, username string, excludeID uuid.UUID) (bool, error)

	AddRole(ctx context.Context, id uuid.UUID, role string) error
	RemoveRole(ctx context.Context, id uuid.UUID, role string) error
}

// AvatarStore persists processed avatar images.
type AvatarStore interface {
	// Put stores data under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// ProfileInput holds the self-editable profile fields.
type ProfileInput struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

// CreateInput holds the fields for creating an account from the operator CLI.
type CreateInput struct {
	ProfileInput
	Password  string
	Superuser bool
}
