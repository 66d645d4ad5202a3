package mailing

import (
	"fmt"

	"github.com/ignite/mailing-admin/internal/domain"
)

// Sentinel errors for the mailing service layer.
var (
	ErrNotFound = fmt.Errorf("mailing %w", domain.ErrNotFound)
)
