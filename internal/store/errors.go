package store

import (
	"errors"
	"fmt"
)

var (
	// ErrFieldNotClearable is returned when a patch tries to clear a required field.
	ErrFieldNotClearable = errors.New("field cannot be cleared")
	// ErrPatchConflict is returned when a patch both sets and clears a field.
	ErrPatchConflict = errors.New("field is both set and cleared")
)

// CorruptDataError reports a stored column that could not be decoded into its
// model type.
type CorruptDataError struct {
	Table  string
	Column string
	ID     string
	Err    error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt %s.%s for %q: %v", e.Table, e.Column, e.ID, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }
