package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/scriptbridge/internal/host"
	"github.com/dshills/scriptbridge/internal/logging"
)

// Loop is the event dispatcher.
type Loop struct {
	source   host.EventSource
	notifier host.Notifier
	config   Config
	logger   *logging.Logger
	hook     func(State)
	runID    string

	started atomic.Bool
	state   atomic.Int32
	reason  atomic.Int32

	polled    atomic.Uint64
	idle      atomic.Uint64
	delivered atomic.Uint64

	shutdownOnce sync.Once
	shutdownErr  error

	// failure is the host failure that terminated the loop.
	failure error

	done chan struct{}
	err  error
}

// Option configures a Loop.
type Option func(*Loop)

// WithConfig sets the poll cadence.
func WithConfig(cfg Config) Option {
	return func(l *Loop) {
		l.config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithStateHook registers a function called on every state change.
// The hook runs on the loop goroutine.
func WithStateHook(fn func(State)) Option {
	return func(l *Loop) {
		l.hook = fn
	}
}

// New creates a dispatcher polling source and broadcasting to notifier.
func New(source host.EventSource, notifier host.Notifier, opts ...Option) *Loop {
	l := &Loop{
		source:   source,
		notifier: notifier,
		config:   DefaultConfig(),
		logger:   logging.NullLogger,
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.config.PollTimeout == 0 && l.config.IdleSleep <= 0 {
		l.config.IdleSleep = DefaultConfig().IdleSleep
	}
	l.logger = l.logger.WithComponent("dispatch").WithField("run", l.runID[:8])
	return l
}

// RunID returns the identifier attached to this loop's log records.
func (l *Loop) RunID() string {
	return l.runID
}

// State returns the current state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Reason returns why the loop terminated, or ReasonNone while it runs.
func (l *Loop) Reason() Reason {
	return Reason(l.reason.Load())
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Polled:    l.polled.Load(),
		Idle:      l.idle.Load(),
		Delivered: l.delivered.Load(),
	}
}

// Run runs the loop on the calling goroutine, which is the main context.
// The host is shut down as soon as the loop terminates. Host failures end
// the loop like SHUTDOWN and are reported by Failure; only a failing host
// Shutdown is returned.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	l.loop(ctx)
	return l.shutdown()
}

// Start runs the loop on a worker goroutine. After the loop terminates the
// worker waits for mainDone to be closed before shutting the host down.
// A nil mainDone skips the wait.
func (l *Loop) Start(ctx context.Context, mainDone <-chan struct{}) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	l.done = make(chan struct{})
	go func() {
		defer close(l.done)

		l.loop(ctx)
		if mainDone != nil {
			l.logger.Debug("waiting for main context")
			<-mainDone
		}
		l.err = l.shutdown()
	}()
	return nil
}

// Wait blocks until a loop started with Start has shut the host down and
// returns its error.
func (l *Loop) Wait() error {
	if l.done == nil {
		return ErrNotRunning
	}
	<-l.done
	return l.err
}

// Failure returns the host failure that terminated the loop, or nil.
// It is valid once Run returned or Done is closed.
func (l *Loop) Failure() error {
	return l.failure
}

// Done returns a channel closed when a background loop finished, or nil
// when the loop was not started with Start.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) setState(s State) {
	if State(l.state.Swap(int32(s))) == s {
		return
	}
	if l.hook != nil {
		l.hook(s)
	}
}

func (l *Loop) terminate(r Reason) {
	l.reason.Store(int32(r))
	l.setState(StateTerminated)
}

// loop runs the POLLING/NOTIFYING cycle until termination.
func (l *Loop) loop(ctx context.Context) {
	l.setState(StatePolling)
	l.logger.Debug("dispatcher started")

	for {
		if ctx.Err() != nil {
			l.logger.Warn("context done, terminating")
			l.terminate(ReasonContextDone)
			return
		}

		ev, err := l.source.WaitEvent(ctx, l.config.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Warn("context done, terminating")
				l.terminate(ReasonContextDone)
				return
			}
			l.fail(host.NewCommunicationError("wait_event", err))
			return
		}
		l.polled.Add(1)

		if ev.ID == host.EventNone {
			l.idle.Add(1)
			if l.config.PollTimeout == 0 {
				l.sleep(ctx)
			}
			continue
		}

		l.setState(StateNotifying)
		if l.config.Verbose {
			l.logger.Debug("received event %s", ev)
		}

		if ev.ID == host.EventShutdown {
			l.logger.Warn("shutdown event received, terminating")
			l.terminate(ReasonShutdownEvent)
			return
		}

		if err := l.notifier.NotifyClients(ctx, ev); err != nil {
			if ctx.Err() != nil {
				l.logger.Warn("context done, terminating")
				l.terminate(ReasonContextDone)
				return
			}
			l.fail(host.NewCommunicationError("notify_clients", err))
			return
		}
		l.delivered.Add(1)
		l.setState(StatePolling)
	}
}

func (l *Loop) fail(err error) {
	l.failure = err
	l.logger.Error("host failure: %v", err)
	l.logger.Warn("host failure, terminating")
	l.terminate(ReasonHostFailure)
}

func (l *Loop) sleep(ctx context.Context) {
	if l.config.IdleSleep <= 0 {
		return
	}
	t := time.NewTimer(l.config.IdleSleep)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// shutdown tears the host down exactly once.
func (l *Loop) shutdown() error {
	l.shutdownOnce.Do(func() {
		l.logger.Debug("shutting down host")
		l.shutdownErr = host.NewCommunicationError("shutdown", l.source.Shutdown())
		if l.shutdownErr != nil {
			l.logger.Error("host shutdown failed: %v", l.shutdownErr)
		}
	})
	return l.shutdownErr
}
