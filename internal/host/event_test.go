package host

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventIDNamesRoundTrip(t *testing.T) {
	for _, id := range EventIDs() {
		t.Run(id.String(), func(t *testing.T) {
			assert.True(t, id.Valid())
			parsed, err := ParseEventID(id.String())
			require.NoError(t, err)
			assert.Equal(t, id, parsed)
		})
	}
}

func TestEventIDWireValues(t *testing.T) {
	assert.Equal(t, 0, int(EventNone))
	assert.Equal(t, 1, int(EventShutdown))
	assert.Equal(t, 16, int(EventClientMessage))
	assert.Equal(t, 25, int(EventHook))
}

func TestParseEventIDNumeric(t *testing.T) {
	id, err := ParseEventID("22")
	require.NoError(t, err)
	assert.Equal(t, EventPropertyChange, id)

	_, err = ParseEventID("19")
	assert.Error(t, err, "19 is a retired wire value")

	_, err = ParseEventID("bogus")
	assert.Error(t, err)
}

func TestEventIDUnknownString(t *testing.T) {
	assert.Equal(t, "unknown(99)", EventID(99).String())
	assert.False(t, EventID(99).Valid())
}

func TestIsTerminal(t *testing.T) {
	for _, id := range EventIDs() {
		assert.Equal(t, id == EventShutdown, id.IsTerminal(), id.String())
	}
}

func TestEventArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ClientMessage("a", "b").Args())
	assert.Equal(t, []string{"x", "1"}, NewEvent(EventClientMessage, []any{"x", 1}).Args())
	assert.Nil(t, NewEvent(EventSeek, 3).Args())
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "seek", NewEvent(EventSeek, nil).String())
	assert.Equal(t, "client-message [a]", ClientMessage("a").String())
}

func TestCommunicationError(t *testing.T) {
	base := errors.New("pipe closed")

	assert.Nil(t, NewCommunicationError("wait_event", nil))

	err := NewCommunicationError("wait_event", base)
	assert.True(t, IsCommunicationFailure(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "host wait_event: pipe closed", err.Error())

	again := NewCommunicationError("shutdown", err)
	assert.Same(t, err, again, "already wrapped errors are returned as-is")

	wrapped := fmt.Errorf("loop: %w", err)
	assert.True(t, IsCommunicationFailure(wrapped))
	assert.False(t, IsCommunicationFailure(base))
}
