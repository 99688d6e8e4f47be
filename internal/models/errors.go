package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for control flow that is not a failure.
var (
	// ErrInterrupted signals a clean pause: the engine persisted state and
	// returned control without corrupting completed work.
	ErrInterrupted = errors.New("execution interrupted")

	// ErrSessionNotFound is returned when loading a session id that has no
	// persisted record.
	ErrSessionNotFound = errors.New("session not found")
)

// ConfigurationError indicates invalid startup configuration. Fatal for the
// process; never produced mid-execution.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// StateCorruptionError indicates a persisted record that cannot be decoded.
// Recoverable: the caller may start a fresh session but must log the loss.
type StateCorruptionError struct {
	Path string
	Err  error
}

func (e *StateCorruptionError) Error() string {
	return fmt.Sprintf("state corruption in %s: %v", e.Path, e.Err)
}

func (e *StateCorruptionError) Unwrap() error { return e.Err }

// SessionLockError indicates the session record is exclusively owned by
// another running engine instance. Fatal for the contending process.
type SessionLockError struct {
	Path string
}

func (e *SessionLockError) Error() string {
	return fmt.Sprintf("session lock held by another process: %s", e.Path)
}

// PlanValidationError indicates a malformed plan step (missing tool or
// parameters). Surfaced to the executor as a Fatal classification.
type PlanValidationError struct {
	Index  int
	Reason string
}

func (e *PlanValidationError) Error() string {
	return fmt.Sprintf("invalid plan step %d: %s", e.Index, e.Reason)
}

// ClarificationExhaustedError is the terminal failure of a task whose
// ambiguity was never resolved within the configured attempt budget.
type ClarificationExhaustedError struct {
	TaskID   int
	Attempts int
}

func (e *ClarificationExhaustedError) Error() string {
	return fmt.Sprintf("task %d: clarification abandoned after %d attempts", e.TaskID, e.Attempts)
}

// InvocationKind subdivides tool invocation failures for the classifier.
type InvocationKind string

const (
	InvocationTransient InvocationKind = "transient"
	InvocationParameter InvocationKind = "parameter"
	InvocationFatal     InvocationKind = "fatal"
)

// InvocationError wraps a failure reported by the Tool Invoker.
type InvocationError struct {
	Kind InvocationKind
	Tool string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool %s: %s invocation error: %v", e.Tool, e.Kind, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// NewInvocationError constructs an InvocationError of the given kind.
func NewInvocationError(kind InvocationKind, tool string, err error) *InvocationError {
	return &InvocationError{Kind: kind, Tool: tool, Err: err}
}

// IsStateCorruption checks if the error is or wraps a StateCorruptionError.
func IsStateCorruption(err error) bool {
	var sc *StateCorruptionError
	return errors.As(err, &sc)
}

// IsSessionLock checks if the error is or wraps a SessionLockError.
func IsSessionLock(err error) bool {
	var sl *SessionLockError
	return errors.As(err, &sl)
}

// IsClarificationExhausted checks if the error is or wraps a
// ClarificationExhaustedError.
func IsClarificationExhausted(err error) bool {
	var ce *ClarificationExhaustedError
	return errors.As(err, &ce)
}
