// Package validation holds the field and cross-field rules applied before any
// client, message or mailing is persisted.
package validation

import (
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ignite/mailing-admin/internal/domain"
)

// Error collects user-facing validation failures. Field messages are keyed
// by the JSON field name; NonField holds form-level messages.
type Error struct {
	Fields   map[string][]string `json:"fields,omitempty"`
	NonField []string            `json:"non_field,omitempty"`
}

// Add records a message for field.
func (e *Error) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// AddNonField records a form-level message.
func (e *Error) AddNonField(msg string) {
	e.NonField = append(e.NonField, msg)
}

// Empty reports whether nothing was recorded.
func (e *Error) Empty() bool {
	return len(e.Fields) == 0 && len(e.NonField) == 0
}

// Has reports whether field has at least one message.
func (e *Error) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// Err returns e as an error, or nil when nothing was recorded.
func (e *Error) Err() error {
	if e == nil || e.Empty() {
		return nil
	}
	return e
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, e.NonField...)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages used across services.
const (
	MsgRequired        = "This field is required."
	MsgInvalidEmail    = "Enter a valid email address."
	MsgClientEmailUsed = "A client with this email already exists."
	MsgUserEmailUsed   = "A user with this email already exists."
	MsgSubjectTooShort = "The subject must be at least 5 characters long."
	MsgTooLong         = "Ensure this value has at most 255 characters."
	MsgStartAfterEnd   = "The start time must be earlier than the end time."
	MsgStartInPast     = "The start time cannot be in the past."
	MsgInvalidChoice   = "Select a valid choice."
	MsgInvalidStatus   = "Select a valid status."
)

const maxCharField = 255

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail performs a structural check on an address.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if len(email) < 3 || len(email) > 254 {
		return false
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}

	local, host := parts[0], parts[1]
	if len(local) == 0 || len(local) > 64 {
		return false
	}
	if len(host) == 0 || len(host) > 253 || !strings.Contains(host, ".") {
		return false
	}
	if strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return false
	}

	_, err := url.Parse("mailto:" + email)
	return err == nil
}

// Client checks the stateless client rules. Uniqueness is checked by the
// client service against the store.
func Client(c *domain.Client) *Error {
	v := &Error{}
	switch {
	case strings.TrimSpace(c.Email) == "":
		v.Add("email", MsgRequired)
	case !ValidEmail(c.Email):
		v.Add("email", MsgInvalidEmail)
	}
	switch {
	case strings.TrimSpace(c.FullName) == "":
		v.Add("full_name", MsgRequired)
	case utf8.RuneCountInString(c.FullName) > maxCharField:
		v.Add("full_name", MsgTooLong)
	}
	return v
}

// Message checks subject length and body presence.
func Message(m *domain.Message) *Error {
	v := &Error{}
	n := utf8.RuneCountInString(m.Subject)
	switch {
	case strings.TrimSpace(m.Subject) == "":
		v.Add("subject", MsgRequired)
	case n < domain.MinSubjectLength:
		v.Add("subject", MsgSubjectTooShort)
	case n > maxCharField:
		v.Add("subject", MsgTooLong)
	}
	if strings.TrimSpace(m.Body) == "" {
		v.Add("body", MsgRequired)
	}
	return v
}

// Window checks start < end and start >= now. Both rules are evaluated and
// every failure is reported.
func Window(start, end, now time.Time) *Error {
	v := &Error{}
	if start.IsZero() {
		v.Add("start_time", MsgRequired)
	}
	if end.IsZero() {
		v.Add("end_time", MsgRequired)
	}
	if !v.Empty() {
		return v
	}
	if !start.Before(end) {
		v.AddNonField(MsgStartAfterEnd)
	}
	if start.Before(now) {
		v.AddNonField(MsgStartInPast)
	}
	return v
}
