// internal/validation/errors.go
package validation

import (
	"fmt"
	"strings"
)

// Parameter names the offending field of a validation error so that a client
// can highlight it.
type Parameter struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ValidationError is a single violated business invariant, carried as a
// structured, user-facing message.
type ValidationError struct {
	Message    string      `json:"message"`
	Parameters []Parameter `json:"parameters"`
}

// NewValidationError builds a validation error with one parameter.
func NewValidationError(message, key, value string) *ValidationError {
	return &ValidationError{
		Message:    message,
		Parameters: []Parameter{{Key: key, Value: value}},
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// HasParameter reports whether the error names the given field.
func (e *ValidationError) HasParameter(key string) bool {
	for _, p := range e.Parameters {
		if p.Key == key {
			return true
		}
	}
	return false
}

// Failure is the aggregate of every validation error discovered during one
// pipeline run. Validators never return it directly; the error handler
// assembles it at the end of the pipeline.
type Failure struct {
	Errors []*ValidationError `json:"errors"`
}

// NewFailure wraps one or more validation errors into a single failure.
func NewFailure(errors ...*ValidationError) *Failure {
	return &Failure{Errors: errors}
}

// SingleFailure builds a failure carrying exactly one validation error.
func SingleFailure(message, key, value string) *Failure {
	return NewFailure(NewValidationError(message, key, value))
}

// Error implements the error interface.
func (f *Failure) Error() string {
	messages := make([]string, 0, len(f.Errors))
	for _, e := range f.Errors {
		messages = append(messages, e.Message)
	}
	return fmt.Sprintf("validation failure: %s", strings.Join(messages, "; "))
}

// HasErrorWithReason reports whether any aggregated error carries the
// given message.
func (f *Failure) HasErrorWithReason(reason string) bool {
	for _, e := range f.Errors {
		if e.Message == reason {
			return true
		}
	}
	return false
}
