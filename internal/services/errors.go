package services

import (
	"errors"
	"fmt"
)

// Sentinel conditions surfaced by the session engine. Handlers map these
// to HTTP status codes; the distinction between Forbidden and Conflict
// lets a client tell "not yours" apart from "already done".
var (
	ErrNotFound          = errors.New("session not found")
	ErrForbidden         = errors.New("session belongs to a different participant")
	ErrConflict          = errors.New("session already complete")
	ErrInvalidTransition = errors.New("can only skip the current active task")
)

// ValidationError reports malformed or incomplete input. It is always
// surfaced to the caller and never retried; no state is mutated beyond the
// always-applied interruption-log append.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// RateLimitedError blocks a voluntary session start, carrying the
// human-readable reason naming the threshold that was breached.
type RateLimitedError struct {
	Reason string
}

func (e *RateLimitedError) Error() string {
	return e.Reason
}
