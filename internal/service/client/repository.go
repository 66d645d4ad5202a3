package client

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/mailing-admin/internal/domain"
)

// Repository defines the data access contract for clients.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a single client. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Client, error)

	// List returns clients ordered by full_name. A nil owner lists every client.
	List(ctx context.Context, owner *uuid.UUID) ([]domain.Client, error)

	// Create inserts a new client.
	Create(ctx context.Context, c *domain.Client) error

	// Update overwrites the editable fields of a client.
	Update(ctx context.Context, c *domain.Client) error

	// Delete removes a client and its mailing memberships.
	Delete(ctx context.Context, id uuid.UUID) error

	// EmailTaken reports whether another client (other than excludeID) uses email.
	EmailTaken(ctx context.Context, email string, excludeID uuid.UUID) (bool, error)
}

// Invalidator drops derived data after a client write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Input holds the editable client fields.
type Input struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Comment  string `json:"comment"`
}
