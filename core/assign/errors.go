package assign

import (
	"errors"
	"fmt"
)

// ErrStaleTransition signals a transition attempted on an assignment that
// already left the expected state. Callers treat it as a logged no-op.
var ErrStaleTransition = errors.New("assign: stale transition")

// ErrNotFound is returned by assignment stores for unknown ids.
var ErrNotFound = errors.New("assign: assignment not found")

// ConfigError indicates invalid engine configuration. It is fatal at
// startup and never silently defaulted.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "assign: invalid configuration: " + e.Reason
}

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// DataUnavailableError wraps a failed or incomplete read from an external
// collaborator. The optimization run aborts and may be retried by the
// caller; no partial assignment is committed.
type DataUnavailableError struct {
	RequestID string
	Op        string
	Err       error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("assign: request %s: %s: %v", e.RequestID, e.Op, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func dataUnavailable(requestID, op string, err error) error {
	return &DataUnavailableError{RequestID: requestID, Op: op, Err: err}
}
