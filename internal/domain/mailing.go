package domain

import (
	"time"

	"github.com/google/uuid"
)

// MailingStatus enumerates the lifecycle labels of a mailing. Dispatch does
// not move a mailing between them; they are maintained by editors.
type MailingStatus string

const (
	MailingCreated   MailingStatus = "created"
	MailingStarted   MailingStatus = "started"
	MailingCompleted MailingStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s MailingStatus) Valid() bool {
	switch s {
	case MailingCreated, MailingStarted, MailingCompleted:
		return true
	}
	return false
}

// Mailing associates one message with a set of clients and a send window.
type Mailing struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	OwnerID   uuid.UUID     `json:"owner_id" db:"owner_id"`
	StartTime time.Time     `json:"start_time" db:"start_time"`
	EndTime   time.Time     `json:"end_time" db:"end_time"`
	Status    MailingStatus `json:"status" db:"status"`
	MessageID uuid.UUID     `json:"message_id" db:"message_id"`
	ClientIDs []uuid.UUID   `json:"client_ids,omitempty" db:"-"`

	// Read-only, populated by list queries.
	ClientsCount int `json:"clients_count" db:"clients_count"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsActiveAt reports whether t falls inside the closed window [StartTime, EndTime].
func (m *Mailing) IsActiveAt(t time.Time) bool {
	return !t.Before(m.StartTime) && !t.After(m.EndTime)
}

// AttemptStatus is the outcome of one delivery attempt.
type AttemptStatus string

const (
	AttemptSuccess AttemptStatus = "success"
	AttemptFailed  AttemptStatus = "failed"
)

// MailingAttempt is one append-only log row per recipient per dispatch.
type MailingAttempt struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	MailingID      uuid.UUID     `json:"mailing_id" db:"mailing_id"`
	AttemptTime    time.Time     `json:"attempt_time" db:"attempt_time"`
	Status         AttemptStatus `json:"status" db:"status"`
	ServerResponse string        `json:"server_response" db:"server_response"`
}

// HomeStats is the cached summary shown on the landing page. Counts are
// global across all owners.
type HomeStats struct {
	TotalMailings  int `json:"total_mailings"`
	ActiveMailings int `json:"active_mailings"`
	UniqueClients  int `json:"unique_clients"`
}
