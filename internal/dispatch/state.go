package dispatch

import "time"

// State is the dispatcher's current phase.
type State int32

const (
	// StatePolling waits for the next host event.
	StatePolling State = iota
	// StateNotifying handles a received event.
	StateNotifying
	// StateTerminated is final.
	StateTerminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateNotifying:
		return "notifying"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Reason records why a loop terminated.
type Reason int32

const (
	// ReasonNone means the loop has not terminated.
	ReasonNone Reason = iota
	// ReasonShutdownEvent means the host delivered SHUTDOWN.
	ReasonShutdownEvent
	// ReasonHostFailure means a host primitive failed.
	ReasonHostFailure
	// ReasonContextDone means the run context was cancelled.
	ReasonContextDone
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonShutdownEvent:
		return "shutdown-event"
	case ReasonHostFailure:
		return "host-failure"
	case ReasonContextDone:
		return "context-done"
	default:
		return "unknown"
	}
}

// Config controls the poll cadence.
type Config struct {
	// PollTimeout is passed to WaitEvent. A negative value blocks until an
	// event arrives. Zero polls without blocking and sleeps IdleSleep after
	// every NONE so the loop never spins.
	PollTimeout time.Duration

	// IdleSleep is the pause after an empty non-blocking poll.
	IdleSleep time.Duration

	// Verbose enables a debug record per received event.
	Verbose bool
}

// DefaultConfig returns the default cadence.
func DefaultConfig() Config {
	return Config{
		PollTimeout: time.Second,
		IdleSleep:   10 * time.Millisecond,
	}
}

// Stats holds loop counters.
type Stats struct {
	// Polled counts successful WaitEvent calls.
	Polled uint64
	// Idle counts NONE events.
	Idle uint64
	// Delivered counts events broadcast to clients.
	Delivered uint64
}
