// Package apperr holds the error taxonomy shared by the ledger, the account
// service and the HTTP layer. Domain failures wrap one of these sentinels;
// anything that wraps none of them is an operational failure.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrPermission         = errors.New("permission denied")
	ErrInvalidTransition  = errors.New("invalid session transition")
	ErrInvalidState       = errors.New("invalid session state")
	ErrDuplicatePending   = errors.New("a pending session already exists")
	ErrAlreadyRated       = errors.New("session already rated")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrSelfBooking        = errors.New("cannot book a session with yourself")
	ErrNotFound           = errors.New("not found")

	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
)

var domain = []error{
	ErrValidation,
	ErrPermission,
	ErrInvalidTransition,
	ErrInvalidState,
	ErrDuplicatePending,
	ErrAlreadyRated,
	ErrInsufficientPoints,
	ErrSelfBooking,
	ErrNotFound,
	ErrConflict,
	ErrInvalidCredentials,
	ErrUnauthenticated,
}

// Wrap attaches detail to a sentinel, e.g. Wrap(ErrValidation, "rating must be 1-5").
func Wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Kind returns the sentinel err wraps, or nil for operational failures.
func Kind(err error) error {
	for _, kind := range domain {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

func IsDomain(err error) bool {
	return err != nil && Kind(err) != nil
}

// Message is the text safe to show a user. Operational failures never leak
// their cause.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if !IsDomain(err) {
		return "internal error"
	}
	kind := Kind(err).Error()
	msg := err.Error()
	if i := strings.Index(msg, kind+": "); i >= 0 {
		return msg[i+len(kind)+2:]
	}
	return kind
}
