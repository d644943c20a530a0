package domain

import (
	"context"
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNoExecutor     = errors.New("asynchronous request without an executor")

	// Transfer errors
	ErrEmptyBody        = errors.New("response is empty")
	ErrUnexpectedStatus = errors.New("unexpected http status")
	ErrLengthMismatch   = errors.New("bytes written differ from content length")
	ErrNotRewindable    = errors.New("sink cannot be rewound for another attempt")
)

// ErrorKind tells the retry orchestrator how to treat a failed attempt.
type ErrorKind int

const (
	// KindRecoverable failures count against the retry budget.
	KindRecoverable ErrorKind = iota
	// KindFatal failures end the operation without further attempts.
	KindFatal
	// KindCancelled marks a cooperative cancellation.
	KindCancelled
)

// String returns the kind name
func (k ErrorKind) String() string {
	switch k {
	case KindRecoverable:
		return "recoverable"
	case KindFatal:
		return "fatal"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// TransferError tags an error with its ErrorKind.
type TransferError struct {
	Kind ErrorKind
	Err  error
}

// Error returns the error message
func (e *TransferError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " transfer error"
}

// Unwrap returns the underlying error
func (e *TransferError) Unwrap() error {
	return e.Err
}

// Recoverable tags err as a retryable failure. A nil err stays nil.
func Recoverable(err error) error {
	return tag(KindRecoverable, err)
}

// Fatal tags err as a non-retryable failure. A nil err stays nil.
func Fatal(err error) error {
	return tag(KindFatal, err)
}

// Cancelled tags err as a cancellation. A nil err stays nil.
func Cancelled(err error) error {
	return tag(KindCancelled, err)
}

func tag(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &TransferError{Kind: kind, Err: err}
}

// KindOf classifies err. The outermost tag wins; untagged context
// cancellation is KindCancelled and every other untagged error is
// KindRecoverable.
func KindOf(err error) ErrorKind {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindRecoverable
}

// IsRecoverable returns true if err should be retried
func IsRecoverable(err error) bool {
	return err != nil && KindOf(err) == KindRecoverable
}

// IsFatal returns true if err must not be retried
func IsFatal(err error) bool {
	return err != nil && KindOf(err) == KindFatal
}

// IsCancelled returns true if err reports a cancellation
func IsCancelled(err error) bool {
	return err != nil && KindOf(err) == KindCancelled
}

// StatusError reports a non-success HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
}

// Error returns the error message
func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to download: HTTP %d", e.StatusCode)
}

// Unwrap lets errors.Is match ErrUnexpectedStatus
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// StatusCode extracts the HTTP status from err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}
