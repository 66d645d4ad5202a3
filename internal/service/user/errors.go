package user

import (
	"errors"
	"fmt"

	"github.com/ignite/mailing-admin/internal/domain"
)

// Sentinel errors for the user service layer.
var (
	ErrNotFound      = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrWeakPassword  = errors.New("password must be at least 8 characters")
	ErrImageTooLarge = errors.New("image exceeds the upload limit")
	ErrBadImage      = errors.New("unsupported or corrupt image")
)
