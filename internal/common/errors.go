// Package common defines shared constants and sentinel errors used across
// the Sortify server. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// ErrorNotFound is returned when a project, file, version or user does
	// not exist. It is surfaced to the caller and never retried.
	ErrorNotFound = errors.New("not found")

	// ErrTransientStorage wraps ledger read/write failures caused by
	// contention or connectivity. The whole operation may be retried.
	ErrTransientStorage = errors.New("transient storage error")

	// ErrInvariantViolation marks detected ledger inconsistencies, e.g. two
	// versions of one file flagged as latest.
	ErrInvariantViolation = errors.New("invariant violation")

	// Request-level errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrorValidation   = errors.New("validation error")
)

// Error kinds reported alongside user-visible failures.
const (
	KindNotFound           = "not_found"
	KindTransientStorage   = "transient_storage"
	KindInvariantViolation = "invariant_violation"
	KindValidation         = "validation"
	KindInternal           = "internal"
)

// KindOf maps err onto the taxonomy kind used for logging.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrorNotFound):
		return KindNotFound
	case errors.Is(err, ErrTransientStorage):
		return KindTransientStorage
	case errors.Is(err, ErrInvariantViolation):
		return KindInvariantViolation
	case errors.Is(err, ErrorValidation):
		return KindValidation
	default:
		return KindInternal
	}
}
