package home

import (
	"time"

	"github.com/google/uuid"

	"github.com/kotakee/kotakee-core/internal/action"
)

// Event types published to sinks.
const (
	EventActionState = "action_state"
	EventHomeStatus  = "home_status"
)

// Event describes one observable change. ActionID and the state fields are
// only meaningful for EventActionState.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	RoomID    int       `json:"roomId,omitempty"`
	ActionID  action.ID `json:"actionId,omitempty"`
	OldState  int       `json:"oldState,omitempty"`
	NewState  int       `json:"newState,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives change events. Implementations must not block; slow
// consumers drop or buffer on their side.
type EventSink interface {
	Publish(event Event)
}

// TelemetryWriter receives parsed climate readings.
type TelemetryWriter interface {
	WriteClimate(roomID int, id action.ID, reading action.Reading)
}

// MultiTelemetry fans one climate reading out to several writers.
type MultiTelemetry []TelemetryWriter

// WriteClimate delivers the reading to every writer in order.
func (m MultiTelemetry) WriteClimate(roomID int, id action.ID, reading action.Reading) {
	for _, w := range m {
		w.WriteClimate(roomID, id, reading)
	}
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event)

// Publish calls the wrapped function.
func (f SinkFunc) Publish(event Event) { f(event) }

// MultiSink fans one event out to several sinks.
type MultiSink []EventSink

// Publish delivers the event to every sink in order.
func (s MultiSink) Publish(event Event) {
	for _, sink := range s {
		sink.Publish(event)
	}
}

func newEvent(eventType string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}
