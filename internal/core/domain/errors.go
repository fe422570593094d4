package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownEntity         = errors.New("unknown entity")
	ErrInvalidFilter         = errors.New("invalid filter")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrNotFound              = errors.New("not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrValidationFailed      = errors.New("validation failed")
	ErrIDGenerationExhausted = errors.New("id generation exhausted")
	ErrUpstream              = errors.New("upstream failure")
)

// ValidationError reports payload fields that failed schema constraints.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError builds a ValidationError with a single field message.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {msg}}}
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field has been recorded.
func (e *ValidationError) Empty() bool { return len(e.Fields) == 0 }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// FilterError names the caller-supplied filter key that cannot be applied.
type FilterError struct {
	Key    string
	Reason string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("invalid filter %q: %s", e.Key, e.Reason)
}

func (e *FilterError) Is(target error) bool { return target == ErrInvalidFilter }

// Upstream wraps a datastore failure so callers can match ErrUpstream.
func Upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}
