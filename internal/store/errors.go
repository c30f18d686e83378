package store

import "errors"

// ErrNotFound is returned when a looked-up record does not exist or is no
// longer visible to the account.
var ErrNotFound = errors.New("record not found")
