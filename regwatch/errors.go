package regwatch

import "errors"

// ErrInvalidInput is returned when a caller-supplied argument fails
// validation (empty source ID, malformed limit).
var ErrInvalidInput = errors.New("regwatch: invalid input")

// ErrNotFound is returned when the backend does not know the requested
// source or change.
var ErrNotFound = errors.New("regwatch: not found")
