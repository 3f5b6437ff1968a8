package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType is wrapped by UnsupportedTypeError.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrUnsupportedNesting is wrapped by UnsupportedNestingError.
	ErrUnsupportedNesting = errors.New("unsupported nesting")
)

// UnsupportedTypeError reports a field whose type has no column mapping.
type UnsupportedTypeError struct {
	Field string
	Type  string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("field %q: missing type", e.Field)
	}
	return fmt.Sprintf("field %q: unsupported type %q", e.Field, e.Type)
}

func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

// UnsupportedNestingError reports an array whose items are arrays.
type UnsupportedNestingError struct {
	Field string
}

func (e *UnsupportedNestingError) Error() string {
	return fmt.Sprintf("field %q: arrays of arrays are not supported", e.Field)
}

func (e *UnsupportedNestingError) Unwrap() error { return ErrUnsupportedNesting }
