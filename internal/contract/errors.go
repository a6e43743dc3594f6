package contract

import (
	"fmt"
	"strings"
)

// FieldError describes one contract violation.
type FieldError struct {
	Path   string `json:"path"`   // field path within the payload, e.g. "rows[0]"
	Detail string `json:"detail"` // expected-vs-actual description
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Detail
	}
	return e.Path + ": " + e.Detail
}

// ValidationError reports why a value does not satisfy a widget contract.
// It always carries the failing field paths.
type ValidationError struct {
	Type   WidgetType
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("invalid %s payload: %s", e.Type, strings.Join(parts, "; "))
}

func newValidationError(t WidgetType, fields ...FieldError) *ValidationError {
	return &ValidationError{Type: t, Fields: fields}
}
