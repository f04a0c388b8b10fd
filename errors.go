package brace

import (
	"errors"
	"fmt"
	"time"
)

// ---------------------------------------------------------------------------
// Protection-layer errors
// ---------------------------------------------------------------------------

type (
	// FaultError identifies errors produced by the protection layer itself,
	// as opposed to errors returned by the wrapped operation.
	FaultError interface {
		error
		// IsFault reports whether this error originates from the protection
		// layer.
		IsFault() bool
	}

	// transientError marks a wrapped error as transient (retriable).
	transientError struct {
		err error
	}

	// permanentError marks a wrapped error as permanent (non-retriable).
	permanentError struct {
		err error
	}

	// faultError is the concrete type backing all sentinel errors.
	faultError string
)

// Sentinel protection-layer errors.
var (
	// ErrCircuitOpen is returned when a call is rejected without execution:
	// the breaker is open, or its half-open trial slot is taken.
	ErrCircuitOpen error = faultError("circuit breaker is open")
	// ErrTimeout matches any [TimeoutError] via errors.Is.
	ErrTimeout error = faultError("operation timed out")
	// ErrRetriesExhausted matches any [ExhaustedError] via errors.Is.
	ErrRetriesExhausted error = faultError("retries exhausted")
)

func (e faultError) Error() string { return string(e) }

// IsFault reports whether the error is a protection-layer error.
func (faultError) IsFault() bool { return true }

// TimeoutError reports that a protected call, including any retries, ran
// past its configured deadline. Timeout carries the bound that was exceeded.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("operation timed out after %s", e.Timeout)
}

// Is matches [ErrTimeout], so callers can test with errors.Is without
// caring about the payload.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// IsFault reports whether the error is a protection-layer error.
func (e *TimeoutError) IsFault() bool { return true }

// ExhaustedError reports that the retry loop stopped without a success:
// either every attempt failed, or the retry predicate rejected the failure.
// Attempts is the number of attempts actually made; Cause is the final
// underlying failure and is reachable through errors.Unwrap.
type ExhaustedError struct {
	Cause    error
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempt(s): %s", e.Attempts, e.Cause)
}

func (e *ExhaustedError) Unwrap() error { return e.Cause }

// Is matches [ErrRetriesExhausted], so callers can test with errors.Is
// without caring about the payload.
func (e *ExhaustedError) Is(target error) bool { return target == ErrRetriesExhausted }

// IsFault reports whether the error is a protection-layer error.
func (e *ExhaustedError) IsFault() bool { return true }

// ---------------------------------------------------------------------------
// Error classification wrappers
// ---------------------------------------------------------------------------

func (e *transientError) Error() string { return "transient: " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (e *permanentError) Error() string { return "permanent: " + e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Transient wraps err to mark it as a transient (retriable) error.
// Returns nil if err is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}

	return &transientError{err: err}
}

// Permanent wraps err to mark it as a permanent (non-retriable) error.
// Returns nil if err is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}

	return &permanentError{err: err}
}

// IsTransient reports whether err is transient. Unclassified errors are
// treated as transient. Returns false for nil.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	// Explicitly permanent errors are not transient.
	var pe *permanentError

	return !errors.As(err, &pe)
}

// IsPermanent reports whether err was explicitly marked as permanent.
// Returns false for nil and for unclassified errors.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	var pe *permanentError

	return errors.As(err, &pe)
}
