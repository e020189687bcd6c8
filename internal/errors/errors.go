package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the storefront client. Every outbound call failure is
// classified into exactly one of these before being returned to callers.
var (
	// Transport errors
	ErrNetwork = errors.New("network error")

	// Credential errors
	ErrExpiredCredential = errors.New("expired credential")
	ErrInvalidSession    = errors.New("invalid session")
	ErrDecodeFailure     = errors.New("credential decode failure")
	ErrNoRefreshToken    = errors.New("no refresh token available")

	// Domain errors surfaced inline to the caller
	ErrBadRequest = errors.New("bad request")
	ErrConflict   = errors.New("conflict")
	ErrServer     = errors.New("server error")

	// Local state errors
	ErrCorruptLocalState = errors.New("corrupt local state")
	ErrKeyNotFound       = errors.New("key not found")
)

// StatusError carries the HTTP outcome of a classified response. It unwraps to
// one of the taxonomy sentinels above so callers can branch with errors.Is.
type StatusError struct {
	Kind          error
	Status        int
	Message       string
	CartOperation bool
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", e.Kind.Error(), e.Status)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Kind.Error(), e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.Kind
}

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
