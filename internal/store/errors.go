package store

import "errors"

// Sentinel errors for the store layer. Anything else coming out of a
// store call is an upstream database failure and is propagated wrapped,
// never masked as a business error.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ConflictError is a state-invariant violation carrying an optional
// recovery hint for the caller. Action "finish" tells the UI to offer
// finishing the open usage instead of retrying start.
type ConflictError struct {
	Message string
	Action  string
}

func (e *ConflictError) Error() string { return e.Message }

// Unwrap lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Unwrap() error { return ErrConflict }
