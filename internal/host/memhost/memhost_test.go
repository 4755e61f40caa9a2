package memhost

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/scriptbridge/internal/host"
)

func TestWaitEventReturnsQueuedInOrder(t *testing.T) {
	h := New(WithEvents(host.NewEvent(host.EventFileLoaded, nil)))
	h.Push(host.NewEvent(host.EventSeek, nil), host.NewEvent(host.EventShutdown, nil))

	ctx := context.Background()
	for _, want := range []host.EventID{host.EventFileLoaded, host.EventSeek, host.EventShutdown} {
		ev, err := h.WaitEvent(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, want, ev.ID)
	}
	assert.Zero(t, h.Pending())
}

func TestWaitEventNonBlockingReturnsNone(t *testing.T) {
	h := New()
	ev, err := h.WaitEvent(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, host.EventNone, ev.ID)
}

func TestWaitEventTimeout(t *testing.T) {
	h := New()
	start := time.Now()
	ev, err := h.WaitEvent(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, host.EventNone, ev.ID)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestWaitEventWakesOnPush(t *testing.T) {
	h := New()
	go func() {
		time.Sleep(10 * time.Millisecond)
		h.Push(host.NewEvent(host.EventSeek, nil))
	}()

	ev, err := h.WaitEvent(context.Background(), host.InfiniteTimeout)
	require.NoError(t, err)
	assert.Equal(t, host.EventSeek, ev.ID)
}

func TestWaitEventContextCancel(t *testing.T) {
	h := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.WaitEvent(ctx, host.InfiniteTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCloseFailsWait(t *testing.T) {
	h := New()
	h.Close()

	_, err := h.WaitEvent(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, host.IsCommunicationFailure(err))
	assert.ErrorIs(t, err, host.ErrHostClosed)
}

func TestFailWaitAfter(t *testing.T) {
	boom := errors.New("boom")
	h := New(WithEvents(host.NewEvent(host.EventSeek, nil), host.NewEvent(host.EventSeek, nil)))
	h.FailWaitAfter(1, boom)

	_, err := h.WaitEvent(context.Background(), 0)
	require.NoError(t, err)
	_, err = h.WaitEvent(context.Background(), 0)
	assert.ErrorIs(t, err, boom)
}

func TestRecording(t *testing.T) {
	var forwarded []host.Event
	h := New(WithNotifier(host.NotifierFunc(func(_ context.Context, ev host.Event) error {
		forwarded = append(forwarded, ev)
		return nil
	})))
	ctx := context.Background()

	require.NoError(t, h.Commandv(ctx, "define-section", "input_foo", "", "default"))
	require.NoError(t, h.NotifyClients(ctx, host.NewEvent(host.EventSeek, nil)))
	h.HandleLog("warn", "careful")
	require.NoError(t, h.Shutdown())

	assert.Equal(t, [][]string{{"define-section", "input_foo", "", "default"}}, h.Commands())
	assert.Len(t, h.Notifications(), 1)
	assert.Len(t, forwarded, 1)
	assert.Equal(t, []LogRecord{{Level: "warn", Message: "careful"}}, h.Logs())
	assert.Equal(t, "[warn] careful", h.Logs()[0].String())
	assert.Equal(t, 1, h.ShutdownCount())
}

func TestFailureInjection(t *testing.T) {
	boom := errors.New("boom")
	h := New()
	h.FailNotify(boom)
	h.FailCommand(boom)
	h.FailShutdown(boom)

	err := h.NotifyClients(context.Background(), host.NewEvent(host.EventSeek, nil))
	assert.True(t, host.IsCommunicationFailure(err))
	err = h.Commandv(context.Background(), "x")
	assert.True(t, host.IsCommunicationFailure(err))
	assert.ErrorIs(t, h.Shutdown(), boom)
	assert.Empty(t, h.Commands())
}

func TestParseScenario(t *testing.T) {
	data := []byte(`
name: basic
events:
  - event: file-loaded
  - event: client-message
    args: [key-binding, __keybinding1, d]
  - event: property-change
    data: {name: pause, value: true}
  - event: seek
    repeat: 2
  - event: shutdown
`)
	sc, err := ParseScenario(data)
	require.NoError(t, err)
	assert.Equal(t, "basic", sc.Name)
	assert.Len(t, sc.Steps, 5)
	assert.Equal(t, "seek", sc.Steps[3].Event)
	assert.True(t, sc.EndsWithShutdown())

	events := sc.Events()
	require.Len(t, events, 6)
	assert.Equal(t, host.EventFileLoaded, events[0].ID)
	assert.Nil(t, events[0].Payload)
	assert.Equal(t, []string{"key-binding", "__keybinding1", "d"}, events[1].Payload)
	assert.Equal(t, map[string]any{"name": "pause", "value": true}, events[2].Payload)
	assert.Equal(t, host.EventSeek, events[3].ID)
	assert.Equal(t, host.EventSeek, events[4].ID)
	assert.Equal(t, host.EventShutdown, events[5].ID)
}

func TestParseScenarioErrors(t *testing.T) {
	_, err := ParseScenario([]byte("events:\n  - event: explode\n"))
	assert.ErrorContains(t, err, "explode")

	_, err = ParseScenario([]byte("events: [\n"))
	assert.Error(t, err)

	_, err = ParseScenario([]byte("events:\n  - event: seek\n    repeat: -1\n"))
	assert.ErrorContains(t, err, "negative repeat")
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	require.NoError(t, os.WriteFile(path, []byte("events:\n  - event: seek\n"), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.False(t, sc.EndsWithShutdown())
	assert.Len(t, sc.Events(), 1)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
