package contracts

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable reports a connection or query failure while loading
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrSchemaMismatch reports a column the pipeline depends on being absent
	// or ambiguous
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// SchemaError describes which column broke the expected schema
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s.%s: %s", ErrSchemaMismatch, e.Table, e.Column, e.Reason)
}

// Unwrap lets errors.Is match ErrSchemaMismatch
func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}
