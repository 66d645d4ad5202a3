package mailing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/mailing-admin/internal/domain"
)

// Repository defines the data access contract for mailings.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Get returns a mailing with its ClientIDs populated.
	// Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.Mailing, error)

	// List returns mailings newest first with ClientsCount populated.
	// A nil owner lists every mailing.
	List(ctx context.Context, owner *uuid.UUID) ([]domain.Mailing, error)

	// Create inserts the mailing and its recipient set atomically.
	Create(ctx context.Context, m *domain.Mailing) error

	// Update overwrites the mailing and replaces its recipient set atomically.
	Update(ctx context.Context, m *domain.Mailing) error

	// Delete removes a mailing and its attempt log.
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttemptReader lists the delivery log of a mailing.
type AttemptReader interface {
	// ListAttempts returns attempts newest first. A nil status returns all.
	ListAttempts(ctx context.Context, mailingID uuid.UUID, status *domain.AttemptStatus) ([]domain.MailingAttempt, error)
}

// MessageSource resolves messages a mailing may reference.
type MessageSource interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	List(ctx context.Context, owner *uuid.UUID) ([]domain.Message, error)
}

// ClientSource resolves clients a mailing may target.
type ClientSource interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Client, error)
	List(ctx context.Context, owner *uuid.UUID) ([]domain.Client, error)
}

// Invalidator drops derived data after a mailing write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Input holds the editable mailing fields. An empty Status means created on
// create and leaves the current status unchanged on update.
type Input struct {
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	Status    string      `json:"status"`
	MessageID uuid.UUID   `json:"message_id"`
	ClientIDs []uuid.UUID `json:"client_ids"`
}

// Choices lists what an identity may reference when editing a mailing.
type Choices struct {
	Messages []domain.Message `json:"messages"`
	Clients  []domain.Client  `json:"clients"`
}
