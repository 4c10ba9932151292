package storage

import "errors"

// ErrNotFound is returned when the requested id is absent from the
// backing store. It signals absence, not a connectivity failure, so it
// never flips the availability flag.
var ErrNotFound = errors.New("todo not found")
