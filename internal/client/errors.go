package client

import (
	"errors"
	"strconv"
)

// Client registry errors.
var (
	// ErrDuplicateClient is returned when a client name is already registered.
	ErrDuplicateClient = errors.New("client already registered")

	// ErrUnknownClient is returned when a client name is not registered.
	ErrUnknownClient = errors.New("unknown client")

	// ErrInvalidName is returned for empty client names.
	ErrInvalidName = errors.New("invalid client name")

	// ErrRegistrationClosed is returned when registering after the
	// dispatcher started polling.
	ErrRegistrationClosed = errors.New("client registration is closed")
)

// Error describes a failed registry operation.
type Error struct {
	Op   string
	Name string
	Err  error
}

func (e *Error) Error() string {
	return "client " + e.Op + " " + strconv.Quote(e.Name) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
