package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingContent    = errors.New("missing content")
	ErrMissingProperties = errors.New("missing properties")
)

// FieldError reports a required field that is absent or has the wrong shape.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationError collects every field problem found while building a TrailItem.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Error())
	}
	return "invalid trail item: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}
