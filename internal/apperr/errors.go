// Package apperr holds the error taxonomy shared by the store, lifecycle,
// recorder and HTTP layers. Every error returned by a service wraps exactly
// one of the sentinels below so callers can branch with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrStorage             = errors.New("storage error")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func LocationUnavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLocationUnavailable, fmt.Sprintf(format, args...))
}

// Storage wraps a persistence failure. The underlying error stays reachable
// through errors.Is / errors.As.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// Message strips the sentinel prefix so the text can be shown to a user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	for _, sentinel := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrLocationUnavailable} {
		prefix := sentinel.Error() + ": "
		if errors.Is(err, sentinel) && len(text) > len(prefix) && text[:len(prefix)] == prefix {
			return text[len(prefix):]
		}
	}
	if errors.Is(err, ErrStorage) {
		return "storage failure, please try again"
	}
	return text
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
