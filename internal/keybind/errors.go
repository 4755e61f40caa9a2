package keybind

import (
	"errors"
	"strconv"
)

// Binding registry errors.
var (
	// ErrDuplicateBindingName is returned when a name is declared twice
	// within one client.
	ErrDuplicateBindingName = errors.New("duplicate binding name")

	// ErrInvalidKeySpec is returned for keys the engine cannot parse
	// inside a section line.
	ErrInvalidKeySpec = errors.New("invalid key spec")

	// ErrInvalidBindingName is returned for names that would break the
	// script-binding target.
	ErrInvalidBindingName = errors.New("invalid binding name")

	// ErrNilCallback is returned when binding a nil callback.
	ErrNilCallback = errors.New("callback cannot be nil")

	// ErrAlreadyBound is returned when a handle is bound twice.
	ErrAlreadyBound = errors.New("binding already has a callback")

	// ErrUnknownBinding is returned when dispatching to an unknown name.
	ErrUnknownBinding = errors.New("unknown binding")

	// ErrInvalidKeyState is returned for malformed key state codes.
	ErrInvalidKeyState = errors.New("invalid key state")
)

// Error reports a failure concerning one binding of one client.
type Error struct {
	Client  string
	Binding string
	Err     error
}

func (e *Error) Error() string {
	return "keybinding " + e.Client + "/" + strconv.Quote(e.Binding) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
