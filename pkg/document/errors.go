package document

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidKind         = errors.New("invalid node kind")
	ErrInvariantViolation  = errors.New("document invariant violation")
	ErrNodeNotFound        = errors.New("node not found")
	ErrUnsupportedVersion  = errors.New("unsupported serialization version")
	ErrNotSelectable       = errors.New("node is not selectable")
	ErrSelectionOutOfRange = errors.New("selection point out of range")
)

// InvalidKindError is returned when a caller asks for a kind the tree does not know.
type InvalidKindError struct {
	Kind Kind
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid node kind %q", e.Kind)
}

func (e *InvalidKindError) Unwrap() error {
	return ErrInvalidKind
}

// InvariantViolationError reports a structural edit that was rejected.
// The tree is left exactly as it was before the rejected batch.
type InvariantViolationError struct {
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return "invariant violation: " + e.Reason
}

func (e *InvariantViolationError) Unwrap() error {
	return ErrInvariantViolation
}

func violation(format string, args ...interface{}) error {
	return &InvariantViolationError{Reason: fmt.Sprintf(format, args...)}
}
