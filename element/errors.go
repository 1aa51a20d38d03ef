package element

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrSchemaMismatch is wrapped by [SchemaMismatchError].
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInvalidTarget is returned when the destination is not a non-nil
	// pointer to an element struct or Node.
	ErrInvalidTarget = errors.New("invalid target")
)

// SchemaMismatchError is returned when a document's root element does not
// carry the name the target class declares.
type SchemaMismatchError struct {
	Want Name
	Got  Name
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%v: expected root %s, got %s", ErrSchemaMismatch, e.Want, e.Got)
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrSchemaMismatch
}

// SchemaError reports an invalid element declaration.
type SchemaError struct {
	Type  reflect.Type
	Field string
	Msg   string
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("element: %s: %s", e.Type, e.Msg)
	}

	return fmt.Sprintf("element: %s.%s: %s", e.Type, e.Field, e.Msg)
}
