package errs

import (
	"errors"
	"fmt"
)

// ErrAdapterUnavailable is returned when the control surface is not connected.
// Callers check it with errors.Is.
var ErrAdapterUnavailable = errors.New("control surface unavailable")

// ValidationError reports malformed input to a create/register call
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a field
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports an operation against an unknown id
type NotFoundError struct {
	Kind string // "template", "rule", "alert"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NewNotFound builds a NotFoundError
func NewNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// ActionError wraps the failure of one action within a rule invocation
type ActionError struct {
	RuleID     string
	Index      int
	ActionType string
	Err        error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("rule %s action %d (%s): %v", e.RuleID, e.Index, e.ActionType, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }
