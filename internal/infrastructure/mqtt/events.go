package mqtt

import (
	"encoding/json"

	"github.com/kotakee/kotakee-core/internal/action"
	"github.com/kotakee/kotakee-core/internal/home"
)

// EventPublisher broadcasts home change events onto the MQTT bus.
//
// It implements home.EventSink. Publishes run in their own goroutine because
// sinks must not block the home's lock path; a failed publish is logged and
// dropped rather than retried (the retained flag means late subscribers still
// converge on the latest state).
type EventPublisher struct {
	client *Client
	logger Logger
}

// NewEventPublisher creates a publisher backed by an established client.
//
// Parameters:
//   - client: Connected MQTT client
//   - logger: Logger for publish failures (may be nil)
func NewEventPublisher(client *Client, logger Logger) *EventPublisher {
	return &EventPublisher{
		client: client,
		logger: logger,
	}
}

// Publish maps an event to its topic and sends it.
//
// Topic selection:
//   - action_state events go to kotakee/home/{roomID}/action/{actionID}, retained
//   - home_status events go to kotakee/home/status, not retained
//
// Unknown event types are dropped.
func (p *EventPublisher) Publish(event home.Event) {
	topic, retained, ok := eventTopic(event)
	if !ok {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("failed to marshal event", "type", event.Type, "error", err)
		}
		return
	}

	go func() {
		if err := p.client.Publish(topic, payload, byte(p.client.cfg.QoS), retained); err != nil {
			if p.logger != nil {
				p.logger.Warn("failed to publish event",
					"topic", topic,
					"error", err,
				)
			}
		}
	}()
}

// WriteClimate publishes a parsed climate reading to the room's climate
// topic. Satisfies home.TelemetryWriter. Readings are a live stream rather
// than state, so they go out without the retained flag.
func (p *EventPublisher) WriteClimate(roomID int, id action.ID, reading action.Reading) {
	topic, payload, err := climateMessage(roomID, id, reading)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("failed to marshal climate reading", "room", roomID, "error", err)
		}
		return
	}

	go func() {
		if err := p.client.Publish(topic, payload, byte(p.client.cfg.QoS), false); err != nil {
			if p.logger != nil {
				p.logger.Warn("failed to publish climate reading",
					"topic", topic,
					"error", err,
				)
			}
		}
	}()
}

// climateReading is the wire form of one climate sample.
type climateReading struct {
	RoomID   int     `json:"roomId"`
	ActionID int     `json:"actionId"`
	TempC    float64 `json:"tempC"`
	TempF    int     `json:"tempF"`
	Humidity float64 `json:"humidity"`
}

// climateMessage builds the topic and payload for a climate reading.
func climateMessage(roomID int, id action.ID, reading action.Reading) (topic string, payload []byte, err error) {
	payload, err = json.Marshal(climateReading{
		RoomID:   roomID,
		ActionID: int(id),
		TempC:    reading.Celsius,
		TempF:    reading.Fahrenheit(),
		Humidity: reading.Humidity,
	})
	if err != nil {
		return "", nil, err
	}
	return Topics{}.Climate(roomID, int(id)), payload, nil
}

// eventTopic resolves the topic and retain flag for an event.
// Returns ok=false for event types that have no MQTT mapping.
func eventTopic(event home.Event) (topic string, retained, ok bool) {
	switch event.Type {
	case home.EventActionState:
		return Topics{}.ActionState(event.RoomID, int(event.ActionID)), true, true
	case home.EventHomeStatus:
		return Topics{}.HomeStatus(), false, true
	default:
		return "", false, false
	}
}
