package domain

import "errors"

// ErrNotFound is returned when a record does not exist or is not visible to
// the acting identity. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("not found")
