package host

import (
	"context"
	"time"
)

// InfiniteTimeout asks WaitEvent to block until an event arrives.
const InfiniteTimeout time.Duration = -1

// EventSource is the engine's polling primitive.
type EventSource interface {
	// WaitEvent returns the next pending event. When no event arrives within
	// timeout it returns an event with ID EventNone. A zero timeout polls
	// without blocking; InfiniteTimeout blocks until an event arrives or ctx
	// is done.
	WaitEvent(ctx context.Context, timeout time.Duration) (Event, error)

	// Shutdown tears down the engine-side scripting resources.
	// It must be called exactly once.
	Shutdown() error
}

// Notifier forwards events to the loaded script clients.
type Notifier interface {
	// NotifyClients delivers ev to every client in registration order.
	NotifyClients(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, ev Event) error

// NotifyClients calls f(ctx, ev).
func (f NotifierFunc) NotifyClients(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Commander executes engine commands.
type Commander interface {
	// Commandv runs a command given as a list of arguments.
	Commandv(ctx context.Context, args ...string) error
}

// LogSink receives log records. Level is one of info, debug, warn, error
// or fatal.
type LogSink interface {
	HandleLog(level, message string)
}

// Host bundles every service the engine provides.
type Host interface {
	EventSource
	Commander
	LogSink
}
