// Package policy centralizes who may see and change which records.
//
// Managers and superusers see everything. Everyone else sees only the
// records they own. A record outside the caller's reach is reported as
// domain.ErrNotFound so its existence is never confirmed.
package policy

import (
	"errors"

	"github.com/google/uuid"
	"github.com/ignite/mailing-admin/internal/domain"
)

// ErrUnauthenticated is returned when no user is attached to the request.
var ErrUnauthenticated = errors.New("authentication required")

// CanViewAll reports whether the identity bypasses ownership filtering.
func CanViewAll(id domain.Identity) bool {
	return id.Superuser || id.HasRole(domain.RoleManager)
}

// CanMutate reports whether the identity may view or change a record owned by ownerID.
func CanMutate(id domain.Identity, ownerID uuid.UUID) bool {
	if id.Anonymous() {
		return false
	}
	return CanViewAll(id) || ownerID == id.UserID
}

// OwnerScope returns the owner filter to apply to list queries, or nil when
// the identity may list every record.
func OwnerScope(id domain.Identity) *uuid.UUID {
	if CanViewAll(id) {
		return nil
	}
	owner := id.UserID
	return &owner
}

// Require rejects anonymous identities.
func Require(id domain.Identity) error {
	if id.Anonymous() {
		return ErrUnauthenticated
	}
	return nil
}

// Authorize returns domain.ErrNotFound when the identity may not touch a
// record owned by ownerID.
func Authorize(id domain.Identity, ownerID uuid.UUID) error {
	if err := Require(id); err != nil {
		return err
	}
	if !CanMutate(id, ownerID) {
		return domain.ErrNotFound
	}
	return nil
}
