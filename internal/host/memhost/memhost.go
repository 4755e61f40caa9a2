// Package memhost provides an in-memory engine used by tests and the CLI.
//
// A Host queues events pushed by the caller and hands them out through
// WaitEvent with the same timeout semantics as the real engine. Everything
// the scripting subsystem sends back (commands, notifications, log records,
// shutdown calls) is recorded for inspection.
package memhost

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/scriptbridge/internal/host"
)

// LogRecord is a recorded (level, message) pair.
type LogRecord struct {
	Level   string
	Message string
}

// String formats the record the way the engine prints script output.
func (r LogRecord) String() string {
	return fmt.Sprintf("[%s] %s", r.Level, r.Message)
}

// Host is an in-memory host.Host.
type Host struct {
	mu sync.Mutex

	queue  []host.Event
	signal chan struct{}
	closed bool

	notifier host.Notifier

	commands      [][]string
	notifications []host.Event
	logs          []LogRecord
	shutdowns     int
	polls         int

	// Failure injection
	failWaitAfter int
	failWaitErr   error
	failNotifyErr error
	failCmdErr    error
	failShutErr   error
}

var _ host.Host = (*Host)(nil)
var _ host.Notifier = (*Host)(nil)

// Option configures a Host.
type Option func(*Host)

// WithNotifier forwards NotifyClients calls to n after recording them.
func WithNotifier(n host.Notifier) Option {
	return func(h *Host) {
		h.notifier = n
	}
}

// WithEvents queues initial events.
func WithEvents(events ...host.Event) Option {
	return func(h *Host) {
		h.queue = append(h.queue, events...)
	}
}

// New creates an in-memory host.
func New(opts ...Option) *Host {
	h := &Host{
		signal:        make(chan struct{}, 1),
		failWaitAfter: -1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SetNotifier replaces the notifier calls are forwarded to.
func (h *Host) SetNotifier(n host.Notifier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notifier = n
}

// Push queues events and wakes a blocked WaitEvent.
func (h *Host) Push(events ...host.Event) {
	h.mu.Lock()
	h.queue = append(h.queue, events...)
	h.mu.Unlock()
	h.wake()
}

// Close makes every further WaitEvent fail with host.ErrHostClosed.
func (h *Host) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.wake()
}

// FailWaitAfter makes WaitEvent fail with err after n successful polls.
func (h *Host) FailWaitAfter(n int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failWaitAfter = n
	h.failWaitErr = err
}

// FailNotify makes NotifyClients fail with err.
func (h *Host) FailNotify(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failNotifyErr = err
}

// FailCommand makes Commandv fail with err.
func (h *Host) FailCommand(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failCmdErr = err
}

// FailShutdown makes Shutdown fail with err.
func (h *Host) FailShutdown(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failShutErr = err
}

func (h *Host) wake() {
	select {
	case h.signal <- struct{}{}:
	default:
	}
}

// WaitEvent returns the next queued event, blocking up to timeout.
func (h *Host) WaitEvent(ctx context.Context, timeout time.Duration) (host.Event, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		ev, ok, err := h.next()
		if err != nil || ok {
			return ev, err
		}
		if timeout == 0 {
			return host.Event{ID: host.EventNone}, nil
		}

		select {
		case <-h.signal:
		case <-deadline:
			return host.Event{ID: host.EventNone}, nil
		case <-ctx.Done():
			return host.Event{ID: host.EventNone}, ctx.Err()
		}
	}
}

// next pops a queued event. ok is false when the queue is empty.
func (h *Host) next() (ev host.Event, ok bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return host.Event{}, false, host.NewCommunicationError("wait_event", host.ErrHostClosed)
	}
	if h.failWaitAfter >= 0 && h.polls >= h.failWaitAfter {
		return host.Event{}, false, host.NewCommunicationError("wait_event", h.failWaitErr)
	}
	if len(h.queue) == 0 {
		return host.Event{}, false, nil
	}

	h.polls++
	ev = h.queue[0]
	h.queue = h.queue[1:]
	return ev, true, nil
}

// NotifyClients records the event and forwards it to the notifier.
func (h *Host) NotifyClients(ctx context.Context, ev host.Event) error {
	h.mu.Lock()
	if h.failNotifyErr != nil {
		err := h.failNotifyErr
		h.mu.Unlock()
		return host.NewCommunicationError("notify_clients", err)
	}
	h.notifications = append(h.notifications, ev)
	n := h.notifier
	h.mu.Unlock()

	if n == nil {
		return nil
	}
	return n.NotifyClients(ctx, ev)
}

// Commandv records the command.
func (h *Host) Commandv(_ context.Context, args ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failCmdErr != nil {
		return host.NewCommunicationError("commandv", h.failCmdErr)
	}
	h.commands = append(h.commands, append([]string(nil), args...))
	return nil
}

// HandleLog records the log record.
func (h *Host) HandleLog(level, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logs = append(h.logs, LogRecord{Level: level, Message: message})
}

// Shutdown records the call.
func (h *Host) Shutdown() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.shutdowns++
	if h.failShutErr != nil {
		return h.failShutErr
	}
	return nil
}

// Commands returns the recorded commands.
func (h *Host) Commands() [][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]string, len(h.commands))
	for i, c := range h.commands {
		out[i] = append([]string(nil), c...)
	}
	return out
}

// Notifications returns the recorded notifications.
func (h *Host) Notifications() []host.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]host.Event(nil), h.notifications...)
}

// Logs returns the recorded log records.
func (h *Host) Logs() []LogRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]LogRecord(nil), h.logs...)
}

// ShutdownCount returns how often Shutdown was called.
func (h *Host) ShutdownCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shutdowns
}

// Pending returns the number of queued events.
func (h *Host) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}
