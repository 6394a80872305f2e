package client

import (
	"errors"
	"fmt"
)

// TransientError marks a failure that is worth retrying: network errors,
// timeouts, and 5xx-class responses from a collaborator.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// TerminalError marks a failure that retrying cannot fix: 4xx-class or
// semantic rejections from a collaborator.
type TerminalError struct {
	Op     string
	Status int
	Err    error
}

func (e *TerminalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: rejected with status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: rejected: %v", e.Op, e.Err)
}

func (e *TerminalError) Unwrap() error { return e.Err }

// IsTransient reports whether err is classified as retryable. The
// classification is explicit via the error type, never derived from error
// text.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// Transient wraps err as a retryable failure of operation op.
func Transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

// Terminal wraps err as a non-retryable failure of operation op.
func Terminal(op string, status int, err error) error {
	return &TerminalError{Op: op, Status: status, Err: err}
}
