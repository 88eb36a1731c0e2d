// internal/repository/errors.go
package repository

import "errors"

var (
	// ErrNotFound is returned when no notification matches the given
	// transaction id.
	ErrNotFound = errors.New("notification not found")

	// ErrInvalidTransition is returned when a status update is not a
	// forward-valid transition from the stored status.
	ErrInvalidTransition = errors.New("invalid status transition")
)
