package core

import (
	"context"
	"errors"
	"fmt"
)

// Domain errors. Check with errors.Is.
var (
	ErrNotFound = errors.New("buyer not found")
	// ErrForbidden wraps ErrNotFound so callers cannot tell a foreign record
	// from a missing one.
	ErrForbidden = fmt.Errorf("%w: not owned by actor", ErrNotFound)

	ErrConflict        = errors.New("buyer was modified concurrently")
	ErrValidation      = errors.New("validation failed")
	ErrBatchInvalid    = errors.New("import has invalid rows")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrUnauthenticated = errors.New("no active session")
)

// CSV parse errors all wrap ErrParse.
var (
	ErrParse         = errors.New("invalid csv")
	ErrEmptyInput    = fmt.Errorf("%w: empty file", ErrParse)
	ErrBatchTooLarge = fmt.Errorf("%w: too many rows", ErrParse)
	ErrMalformedCSV  = fmt.Errorf("%w: malformed input", ErrParse)
)

// PersistenceError is an opaque storage failure. The service never retries it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// persistence wraps a store error unless it already carries domain meaning.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrValidation),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
