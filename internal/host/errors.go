package host

import "errors"

// ErrHostClosed is returned by engine services after the engine went away.
var ErrHostClosed = errors.New("host is closed")

// CommunicationError reports a failure of one of the engine's primitives.
type CommunicationError struct {
	// Op names the primitive (wait_event, notify_clients, commandv, shutdown).
	Op string

	// Err is the underlying failure.
	Err error
}

// NewCommunicationError wraps err for the given primitive.
// It returns nil when err is nil and does not double-wrap.
func NewCommunicationError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CommunicationError
	if errors.As(err, &ce) {
		return err
	}
	return &CommunicationError{Op: op, Err: err}
}

func (e *CommunicationError) Error() string {
	if e.Err == nil {
		return "host " + e.Op + " failed"
	}
	return "host " + e.Op + ": " + e.Err.Error()
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// IsCommunicationFailure reports whether err came from an engine primitive.
func IsCommunicationFailure(err error) bool {
	var ce *CommunicationError
	return errors.As(err, &ce)
}
