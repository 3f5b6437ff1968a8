package jsonschema

import (
	"errors"
	"fmt"
)

// ErrInvalidSchema is the sentinel wrapped by every InvalidSchemaError.
var ErrInvalidSchema = errors.New("invalid schema")

// InvalidSchemaError reports malformed schema input.
type InvalidSchemaError struct {
	Field   string // offending key path, e.g. "properties.tags.items"
	Message string
}

func (e *InvalidSchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid schema: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid schema: %s", e.Message)
}

func (e *InvalidSchemaError) Unwrap() error {
	return ErrInvalidSchema
}

func invalidf(field, format string, args ...any) error {
	return &InvalidSchemaError{Field: field, Message: fmt.Sprintf(format, args...)}
}
