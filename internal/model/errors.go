package model

import "fmt"

// The error types below map to HTTP problem responses: validation 400,
// not-found 404, state conflict 409, provider 502. State conflicts are a
// distinct type so callers can tell "someone else took this route" apart
// from a malformed request.

type ValidationError struct {
    Detail string
}

func (e *ValidationError) Error() string { return e.Detail }

func Invalid(format string, args ...any) *ValidationError {
    return &ValidationError{Detail: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
    Kind string
    ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }

type StateConflictError struct {
    Detail string
}

func (e *StateConflictError) Error() string { return e.Detail }

func Conflict(format string, args ...any) *StateConflictError {
    return &StateConflictError{Detail: fmt.Sprintf(format, args...)}
}

// ProviderError classifies upstream failures: non-2xx responses carry the
// HTTP status, transport and decode failures wrap the underlying error.
type ProviderError struct {
    Op     string
    Status int
    Err    error
}

func (e *ProviderError) Error() string {
    if e.Err != nil {
        return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
    }
    return fmt.Sprintf("provider %s: status %d", e.Op, e.Status)
}

func (e *ProviderError) Unwrap() error { return e.Err }
