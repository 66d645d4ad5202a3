package domain

import "github.com/google/uuid"

// RoleManager grants system-wide visibility over clients, messages and mailings.
const RoleManager = "manager"

// Identity is the acting user as supplied by the session collaborator.
type Identity struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Superuser bool      `json:"superuser"`
	Roles     []string  `json:"roles,omitempty"`
}

// HasRole reports whether the identity carries the given role.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Anonymous reports whether no user is attached to the identity.
func (i Identity) Anonymous() bool {
	return i.UserID == uuid.Nil
}
