package engine

import "fmt"

// ValidationError reports malformed input. It is terminal for the event:
// callers log and discard, never retry.
type ValidationError struct {
	Field string // "subject" or "trigger_key"
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StoreError wraps a label store failure with the operation context.
// The engine performs no retry of its own: the upstream feed's
// redelivery plus the idempotence check is the recovery path.
type StoreError struct {
	Op      string // "query", "negate" or "create"
	Subject string
	Label   string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("label store %s failed for %s label %q: %v", e.Op, e.Subject, e.Label, e.Err)
	}
	return fmt.Sprintf("label store %s failed for %s: %v", e.Op, e.Subject, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
