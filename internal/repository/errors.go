// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as services
// and handlers to distinguish between failure scenarios with errors.Is.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a row addressed by id (user, station,
// campaign, reservation) does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write violates a uniqueness rule.
// Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is the registration flavour of ErrConflict.
var ErrEmailExists = errors.New("email already exists")

// ErrAlreadyCompleted is returned by settlement when the reservation is no
// longer PENDING. It is terminal and must not be retried.
var ErrAlreadyCompleted = errors.New("reservation already completed")

// isUniqueViolation recognizes duplicate key errors from MySQL (1062) and
// SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint failed")
}
