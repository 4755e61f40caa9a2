package host

import (
	"fmt"
	"strconv"
)

// EventID identifies the kind of an engine event.
type EventID int

// Engine event identifiers. The numeric values are the engine's wire values;
// the gaps are identifiers the engine has retired.
const (
	EventNone             EventID = 0
	EventShutdown         EventID = 1
	EventLogMessage       EventID = 2
	EventGetPropertyReply EventID = 3
	EventSetPropertyReply EventID = 4
	EventCommandReply     EventID = 5
	EventStartFile        EventID = 6
	EventEndFile          EventID = 7
	EventFileLoaded       EventID = 8
	EventClientMessage    EventID = 16
	EventVideoReconfig    EventID = 17
	EventAudioReconfig    EventID = 18
	EventSeek             EventID = 20
	EventPlaybackRestart  EventID = 21
	EventPropertyChange   EventID = 22
	EventQueueOverflow    EventID = 24
	EventHook             EventID = 25
)

var eventNames = map[EventID]string{
	EventNone:             "none",
	EventShutdown:         "shutdown",
	EventLogMessage:       "log-message",
	EventGetPropertyReply: "get-property-reply",
	EventSetPropertyReply: "set-property-reply",
	EventCommandReply:     "command-reply",
	EventStartFile:        "start-file",
	EventEndFile:          "end-file",
	EventFileLoaded:       "file-loaded",
	EventClientMessage:    "client-message",
	EventVideoReconfig:    "video-reconfig",
	EventAudioReconfig:    "audio-reconfig",
	EventSeek:             "seek",
	EventPlaybackRestart:  "playback-restart",
	EventPropertyChange:   "property-change",
	EventQueueOverflow:    "queue-overflow",
	EventHook:             "hook",
}

var eventsByName = func() map[string]EventID {
	m := make(map[string]EventID, len(eventNames))
	for id, name := range eventNames {
		m[name] = id
	}
	return m
}()

// String returns the engine's name for the event.
func (id EventID) String() string {
	if name, ok := eventNames[id]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(id)) + ")"
}

// Valid reports whether id belongs to the closed event enumeration.
func (id EventID) Valid() bool {
	_, ok := eventNames[id]
	return ok
}

// IsTerminal reports whether the event stops the dispatcher.
func (id EventID) IsTerminal() bool {
	return id == EventShutdown
}

// ParseEventID converts an engine event name (e.g. "file-loaded") or a
// decimal wire value into an EventID.
func ParseEventID(name string) (EventID, error) {
	if id, ok := eventsByName[name]; ok {
		return id, nil
	}
	if n, err := strconv.Atoi(name); err == nil && EventID(n).Valid() {
		return EventID(n), nil
	}
	return EventNone, fmt.Errorf("unknown event %q", name)
}

// EventIDs returns every identifier in the enumeration in wire order.
func EventIDs() []EventID {
	return []EventID{
		EventNone, EventShutdown, EventLogMessage, EventGetPropertyReply,
		EventSetPropertyReply, EventCommandReply, EventStartFile, EventEndFile,
		EventFileLoaded, EventClientMessage, EventVideoReconfig,
		EventAudioReconfig, EventSeek, EventPlaybackRestart,
		EventPropertyChange, EventQueueOverflow, EventHook,
	}
}

// Event is a single event produced by the engine.
type Event struct {
	// ID classifies the event.
	ID EventID

	// Payload is the optional associated data. It is forwarded to clients
	// without modification. Client messages carry a []string.
	Payload any
}

// NewEvent creates an event with the given payload.
func NewEvent(id EventID, payload any) Event {
	return Event{ID: id, Payload: payload}
}

// ClientMessage creates a client-message event carrying args.
func ClientMessage(args ...string) Event {
	return Event{ID: EventClientMessage, Payload: args}
}

// Args returns the payload as message arguments when the payload is a
// string list, and nil otherwise.
func (e Event) Args() []string {
	switch p := e.Payload.(type) {
	case []string:
		return p
	case []any:
		args := make([]string, 0, len(p))
		for _, v := range p {
			args = append(args, fmt.Sprint(v))
		}
		return args
	default:
		return nil
	}
}

// String returns a short description used in logs.
func (e Event) String() string {
	if e.Payload == nil {
		return e.ID.String()
	}
	return fmt.Sprintf("%s %v", e.ID, e.Payload)
}
