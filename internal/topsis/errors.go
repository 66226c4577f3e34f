package topsis

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput matches any *InvalidInputError via errors.Is.
	ErrInvalidInput = errors.New("topsis: invalid input")

	// ErrDegenerateColumn matches any *DegenerateColumnError via errors.Is.
	ErrDegenerateColumn = errors.New("topsis: degenerate column")
)

// InvalidInputError reports a malformed shape or an out-of-range value in the
// caller's input. Field names the offending argument ("matrix", "weights",
// "directions", "labels").
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("topsis: invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidf(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DegenerateColumnError is returned when a criterion column cannot be
// normalized because every value in it is zero. Column is 0-based.
type DegenerateColumnError struct {
	Column int
}

func (e *DegenerateColumnError) Error() string {
	return fmt.Sprintf("topsis: column %d has zero norm (all values are zero)", e.Column)
}

// Is reports whether target is ErrDegenerateColumn.
func (e *DegenerateColumnError) Is(target error) bool {
	return target == ErrDegenerateColumn
}
