// Package sending delivers a mailing's message to each of its clients and
// records one attempt per recipient.
//
// Each mail provider implements the Transport interface. The Dispatcher is
// provider-agnostic and never lets one recipient's failure stop the loop.
package sending

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/mailing-admin/internal/domain"
	"github.com/ignite/mailing-admin/internal/pkg/distlock"
)

// Transport sends a single email through a provider. Implementations must be
// safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, msg *domain.OutgoingEmail) (*domain.SendResult, error)
}

// Renderer personalizes a subject or body template for one recipient.
type Renderer interface {
	Render(tmpl string, vars map[string]any) (string, error)
}

// MailingSource resolves the mailing being dispatched.
type MailingSource interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Mailing, error)
}

// MessageSource resolves the mailing's message.
type MessageSource interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Message, error)
}

// Store reads recipients and appends to the attempt log.
type Store interface {
	// Recipients returns the mailing's clients in a stable order.
	Recipients(ctx context.Context, mailingID uuid.UUID) ([]domain.Client, error)
	// RecordAttempt appends one attempt. AttemptTime is set by the store when zero.
	RecordAttempt(ctx context.Context, a *domain.MailingAttempt) error
}

// LockFactory mints per-mailing dispatch locks. TTL is how far each
// extension between recipients pushes the lock's expiry.
type LockFactory interface {
	Lock(key string) distlock.DistLock
	TTL() time.Duration
}

// Metrics receives dispatcher observations.
type Metrics interface {
	ObserveAttempt(status string)
	ObserveDispatch(outcome string, took time.Duration)
}
