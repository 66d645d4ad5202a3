package sending

import (
	"errors"
	"fmt"
)

// Sentinel errors for the dispatcher.
var (
	ErrWindowInactive     = errors.New("mailing window is not active")
	ErrDispatchInProgress = errors.New("mailing is already being dispatched")

	// ErrLockLost means the dispatch lock expired mid-run and another
	// dispatch may have taken over. It matches ErrDispatchInProgress.
	ErrLockLost = fmt.Errorf("dispatch lock lost: %w", ErrDispatchInProgress)
)
