package client

import (
	"fmt"

	"github.com/ignite/mailing-admin/internal/domain"
)

// Sentinel errors for the client service layer.
var (
	ErrNotFound = fmt.Errorf("client %w", domain.ErrNotFound)
)
