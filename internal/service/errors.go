// Package service holds the business operations: identity, the reservation
// ledger, reward settlement, campaign eligibility and station management.
// Services receive the caller's session explicitly and return sentinel
// errors from this package or internal/repository.
package service

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks malformed or missing request fields.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnauthorized marks failed credential checks.
var ErrUnauthorized = errors.New("unauthorized")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
