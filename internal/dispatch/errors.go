package dispatch

import "errors"

// Dispatcher errors.
var (
	// ErrAlreadyRunning indicates the loop was already started.
	ErrAlreadyRunning = errors.New("dispatcher already running")

	// ErrNotRunning indicates Wait was called on a loop never started
	// in the background.
	ErrNotRunning = errors.New("dispatcher not running")
)
