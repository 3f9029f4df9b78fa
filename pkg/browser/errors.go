package browser

import (
	"errors"
	"fmt"
)

// CollaboratorError wraps a failure from the browser driver with enough
// context for the caller's retry policy: retryable errors (timeouts, flaky
// renders) get retried by the fan-out loop, fatal ones do not.
type CollaboratorError struct {
	Op        string // operation that failed, e.g. "navigate", "snapshot"
	URL       string // page URL if relevant
	Err       error
	Retryable bool
}

func (e *CollaboratorError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("browser %s %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("browser %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a CollaboratorError marked retryable.
// Unknown error types are treated as retryable; the retry budget is small.
func IsRetryable(err error) bool {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return err != nil
}
