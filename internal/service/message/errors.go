package message

import (
	"fmt"

	"github.com/ignite/mailing-admin/internal/domain"
)

// Sentinel errors for the message service layer.
var (
	ErrNotFound = fmt.Errorf("message %w", domain.ErrNotFound)
)
