package domain

import "time"

// OutgoingEmail is the fully-resolved message handed to a mail transport.
// By the time a message reaches this struct, any personalization is done.
type OutgoingEmail struct {
	MailingID string   `json:"mailing_id"`
	ClientID  string   `json:"client_id"`
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
}

// SendResult is returned by a transport after accepting a message.
type SendResult struct {
	MessageID string    `json:"message_id"`
	Provider  string    `json:"provider"`
	SentAt    time.Time `json:"sent_at"`
}
