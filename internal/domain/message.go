package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinSubjectLength is the shortest subject a message may carry.
const MinSubjectLength = 5

// Message is a reusable email template (subject and plain-text body).
type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   uuid.UUID `json:"owner_id" db:"owner_id"`
	Subject   string    `json:"subject" db:"subject"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
