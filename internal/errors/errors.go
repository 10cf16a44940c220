package errors

import (
	"errors"
	"fmt"
)

// Common error types for the DashWise client
var (
	// Credential errors (login/register rejected by the server)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateAccount   = errors.New("account already exists")

	// Token errors
	ErrMalformedToken = errors.New("malformed token")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrRefreshFailed  = errors.New("refresh failed")

	// Session errors
	ErrNoSession         = errors.New("no active session")
	ErrIncompleteSession = errors.New("incomplete persisted session")

	// Transport errors
	ErrNetwork  = errors.New("network error")
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
