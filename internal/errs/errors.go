package errs

import (
	"errors"
	"fmt"
)

// Common sentinel errors for cross-layer signaling. Services raise these
// before any write; the HTTP layer maps them to status codes and the
// caller-side translator maps them to user-facing text.
var (
	ErrInvalid  = errors.New("invalid_input")
	ErrNotFound = errors.New("not_found")
	// ErrConflict signals a uniqueness violation (e.g. a second statement
	// for the same account and month). Callers of EnsureExists fall back
	// to reading the winner's row.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyPaid rejects a payment against a settled statement.
	ErrAlreadyPaid = errors.New("already_paid")
	// ErrAmountMismatch rejects a conversion whose installment amount does
	// not exactly equal the statement total.
	ErrAmountMismatch = errors.New("amount_mismatch")
	// ErrInvalidConversion rejects converting a multi-installment purchase
	// or one charged to a credit card.
	ErrInvalidConversion = errors.New("invalid_conversion")
	// ErrInvalidAccount rejects an operation whose account role is wrong,
	// e.g. paying a statement from another credit card.
	ErrInvalidAccount = errors.New("invalid_account")
)

// PersistenceError wraps a store failure and records whether retrying
// the whole operation may succeed (connection loss yes, constraint no).
type PersistenceError struct {
	Err       error
	Retryable bool
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persistence wraps err as a non-retryable store failure.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Err: err}
}

// PersistenceRetryable wraps err as a transient store failure.
func PersistenceRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Err: err, Retryable: true}
}

// Retryable reports whether err is a transient persistence failure.
func Retryable(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Retryable
}
