// Package outcome defines the terminal result of a provisioning invocation and
// the error taxonomy that failures are classified into.
package outcome

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	UnexpectedFailure Kind = iota
	MissingRequiredField
	DependencyUnresolved
	ValidationFailed
	UniquenessConflict
	ReconciliationFailed
)

func (k Kind) String() string {
	switch k {
	case MissingRequiredField:
		return "MissingRequiredField"
	case DependencyUnresolved:
		return "DependencyUnresolved"
	case ValidationFailed:
		return "ValidationFailed"
	case UniquenessConflict:
		return "UniquenessConflict"
	case ReconciliationFailed:
		return "ReconciliationFailed"
	default:
		return "UnexpectedFailure"
	}
}

// Error is a classified failure. Message is what the caller sees after the
// ERROR: prefix.
type Error struct {
	Kind    Kind
	Message string
	// Field is the first missing input for MissingRequiredField.
	Field string
	Err   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Missing reports that fields[0] is absent. The message names the whole
// required set.
func Missing(first string, required ...string) *Error {
	return &Error{
		Kind:    MissingRequiredField,
		Field:   first,
		Message: requiredMessage(required),
	}
}

func requiredMessage(fields []string) string {
	switch len(fields) {
	case 0:
		return "required field missing"
	case 1:
		return fields[0] + " is required"
	default:
		return strings.Join(fields[:len(fields)-1], ", ") + " and " + fields[len(fields)-1] + " are required"
	}
}

// Unresolved reports a caller-supplied reference that does not exist.
func Unresolved(format string, args ...any) *Error {
	return &Error{Kind: DependencyUnresolved, Message: fmt.Sprintf(format, args...)}
}

// Invalid reports store-level validation messages, joined with "; ".
func Invalid(messages []string, err error) *Error {
	return &Error{Kind: ValidationFailed, Message: strings.Join(messages, "; "), Err: err}
}

// Unexpected wraps any fault that has no more specific classification.
func Unexpected(err error) *Error {
	return &Error{Kind: UnexpectedFailure, Message: "unexpected failure: " + err.Error(), Err: err}
}

// Classify returns err as an *Error, wrapping it as UnexpectedFailure when it
// is not already classified.
func Classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Unexpected(err)
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// State is the provisioner state an outcome was reached in.
type State int

const (
	Start State = iota
	DependenciesResolved
	IdempotencyChecked
	AlreadyExists
	CreateAttempted
	Created
	ConflictReconciled
	Failed
)

func (s State) String() string {
	return [...]string{
		"START",
		"DEPENDENCIES_RESOLVED",
		"IDEMPOTENCY_CHECKED",
		"ALREADY_EXISTS",
		"CREATE_ATTEMPTED",
		"SUCCESS",
		"CONFLICT_RECONCILED",
		"FAILED",
	}[s]
}

// Outcome is the terminal result handed to the reporter. Exactly one of
// success or Err applies.
type Outcome struct {
	ID     int64
	Err    *Error
	State  State
	lookup bool
}

// Success carries the id of the entity that now exists.
func Success(id int64, state State) Outcome {
	return Outcome{ID: id, State: state}
}

// Failure carries a classified error.
func Failure(err *Error) Outcome {
	return Outcome{Err: err, State: Failed}
}

// Found is the result of a lookup-only operation that located the entity.
func Found(id int64) Outcome {
	return Outcome{ID: id, State: AlreadyExists, lookup: true}
}

// NotFound is the result of a lookup-only operation that located nothing. It
// is not an error.
func NotFound() Outcome {
	return Outcome{State: IdempotencyChecked, lookup: true}
}

func (o Outcome) OK() bool { return o.Err == nil && (!o.lookup || o.ID != 0) }

// Lookup reports whether o came from a lookup-only operation.
func (o Outcome) Lookup() bool { return o.lookup }
