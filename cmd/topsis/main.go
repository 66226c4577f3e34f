package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spboyer/topsis/internal/topsis"
)

// Exit codes for different failure modes
const (
	ExitSuccess      = 0 // Command completed
	ExitInvalidInput = 1 // A problem was malformed, invalid or degenerate
	ExitError        = 2 // Configuration or runtime error
)

// InputError marks a failure caused by the problem the user supplied rather
// than by the environment.
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputErrorf(format string, args ...any) error {
	return &InputError{Err: fmt.Errorf(format, args...)}
}

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var inputErr *InputError
	if errors.As(err, &inputErr) ||
		errors.Is(err, topsis.ErrInvalidInput) ||
		errors.Is(err, topsis.ErrDegenerateColumn) {
		return ExitInvalidInput
	}
	return ExitError
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}
