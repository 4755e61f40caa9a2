package script

import (
	"errors"
	"fmt"
)

// Errors for script operations.
var (
	// ErrScriptNotFound is returned when a script path does not exist.
	ErrScriptNotFound = errors.New("script not found")

	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrCallTimeout is returned when a script call exceeds its time budget.
	ErrCallTimeout = errors.New("lua call timed out")
)

// LoadError reports a script that could not be read or initialized.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load script %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
