// Package errors provides standardized error types for the feature pipeline.
// Every failure surfaced by the pipeline carries one of a small set of kinds
// so that callers (CLI stages, HTTP handlers) can map it to user-facing
// behavior without string matching.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindConfig indicates a required configuration key is missing or malformed.
	KindConfig Kind = iota
	// KindMissingColumn indicates a column required by a transform is absent
	// from the data; a schema mismatch between config and data.
	KindMissingColumn
	// KindInvalidType indicates a value's type is incompatible with the
	// operation, e.g. a numeric bound applied to a string column.
	KindInvalidType
	// KindInvalidInput indicates single-record validation or a post-transform
	// range check failed. This is the expected rejection path for bad user
	// input, distinct from internal bugs.
	KindInvalidInput
	// KindUnseenCategory indicates the encoder met a category absent from its
	// fit-time vocabulary.
	KindUnseenCategory
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindMissingColumn:
		return "missing column"
	case KindInvalidType:
		return "invalid type"
	case KindInvalidInput:
		return "invalid input"
	case KindUnseenCategory:
		return "unseen category"
	default:
		return "unknown"
	}
}

// PipelineError is the error type returned by all pipeline operations.
type PipelineError struct {
	Kind    Kind
	Op      string // Operation name, e.g. "RemoveOutliers", "Transform"
	Column  string // Column or field name if applicable
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s error on column %q: %s", e.Op, e.Kind, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error wrapping support.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// IsKind reports whether err is (or wraps) a PipelineError of the given kind.
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// NewConfigError creates an error for a missing or malformed configuration key.
func NewConfigError(op, key, message string) *PipelineError {
	return &PipelineError{Kind: KindConfig, Op: op, Column: key, Message: message}
}

// NewMissingColumn creates an error for an operation on a non-existent column.
func NewMissingColumn(op, column string) *PipelineError {
	return &PipelineError{Kind: KindMissingColumn, Op: op, Column: column, Message: "column does not exist in the data"}
}

// NewInvalidType creates an error for a type incompatible with an operation.
func NewInvalidType(op, column, message string) *PipelineError {
	return &PipelineError{Kind: KindInvalidType, Op: op, Column: column, Message: message}
}

// NewInvalidInput creates an error for a rejected user record.
func NewInvalidInput(op, message string) *PipelineError {
	return &PipelineError{Kind: KindInvalidInput, Op: op, Message: message}
}

// NewUnseenCategory creates an error for a value outside the encoder's
// fit-time vocabulary.
func NewUnseenCategory(op, column, value string) *PipelineError {
	return &PipelineError{
		Kind:    KindUnseenCategory,
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("value %q was not present when the encoder was fitted", value),
	}
}
