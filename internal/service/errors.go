package service

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned when the actor does not own the list.
	ErrForbidden = errors.New("you do not own this list")

	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for missing, malformed or expired session
	// tokens.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
