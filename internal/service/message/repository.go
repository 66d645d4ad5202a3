package message

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/mailing-admin/internal/domain"
)

// Repository defines the data access contract for messages.
type Repository interface {
	// Get returns a single message. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Message, error)

	// List returns messages ordered by subject. A nil owner lists every message.
	List(ctx context.Context, owner *uuid.UUID) ([]domain.Message, error)

	Create(ctx context.Context, m *domain.Message) error
	Update(ctx context.Context, m *domain.Message) error

	// Delete removes a message together with the mailings that use it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Invalidator drops derived data. Deleting a message cascades to its
// mailings, so statistics are invalidated on delete.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Input holds the editable message fields.
type Input struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
