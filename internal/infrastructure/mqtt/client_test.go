package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kotakee/kotakee-core/internal/action"
	"github.com/kotakee/kotakee-core/internal/home"
	"github.com/kotakee/kotakee-core/internal/infrastructure/config"
)

// testConfig returns a valid MQTT configuration for testing.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "kotakee-test",
			TLS:      false,
		},
		Auth: config.MQTTAuthConfig{
			Username: "",
			Password: "",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	err := client.Close()
	if err != nil {
		t.Errorf("Close() on unconnected client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	client := &Client{}

	err := client.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	client := &Client{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.HealthCheck(ctx)
	if err == nil {
		t.Error("HealthCheck() expected error for cancelled context")
	}
}

// =============================================================================
// Publish Validation Tests
// =============================================================================

func TestPublishEmptyTopic(t *testing.T) {
	client := &Client{cfg: testConfig()}

	err := client.Publish("", []byte("test"), 1, false)
	if !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish() error = %v, want ErrInvalidTopic", err)
	}
}

func TestPublishInvalidQoS(t *testing.T) {
	client := &Client{cfg: testConfig()}

	err := client.Publish("test/topic", []byte("test"), 3, false)
	if !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish() error = %v, want ErrInvalidQoS", err)
	}
}

func TestPublishOversizedPayload(t *testing.T) {
	client := &Client{cfg: testConfig()}

	payload := make([]byte, maxPayloadSize+1)
	err := client.Publish("test/topic", payload, 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublishDisconnected(t *testing.T) {
	client := &Client{cfg: testConfig()}

	err := client.Publish("test/topic", []byte("test"), 1, false)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Topics Tests
// =============================================================================

func TestTopicBuilders(t *testing.T) {
	tests := []struct {
		name     string
		builder  func() string
		expected string
	}{
		{
			name: "SystemStatus",
			builder: func() string {
				return Topics{}.SystemStatus()
			},
			expected: "kotakee/system/status",
		},
		{
			name: "HomeStatus",
			builder: func() string {
				return Topics{}.HomeStatus()
			},
			expected: "kotakee/home/status",
		},
		{
			name: "ActionState",
			builder: func() string {
				return Topics{}.ActionState(2, 50)
			},
			expected: "kotakee/home/2/action/50",
		},
		{
			name: "Climate",
			builder: func() string {
				return Topics{}.Climate(1, 5250)
			},
			expected: "kotakee/home/1/climate/5250",
		},
		{
			name: "AllActionStates",
			builder: func() string {
				return Topics{}.AllActionStates()
			},
			expected: "kotakee/home/+/action/+",
		},
		{
			name: "AllClimate",
			builder: func() string {
				return Topics{}.AllClimate()
			},
			expected: "kotakee/home/+/climate/+",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.builder()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

// =============================================================================
// Event Mapping Tests
// =============================================================================

func TestEventTopic(t *testing.T) {
	tests := []struct {
		name         string
		event        home.Event
		wantTopic    string
		wantRetained bool
		wantOK       bool
	}{
		{
			name:         "action state event",
			event:        home.Event{Type: home.EventActionState, RoomID: 2, ActionID: 50},
			wantTopic:    "kotakee/home/2/action/50",
			wantRetained: true,
			wantOK:       true,
		},
		{
			name:         "home status event",
			event:        home.Event{Type: home.EventHomeStatus},
			wantTopic:    "kotakee/home/status",
			wantRetained: false,
			wantOK:       true,
		},
		{
			name:   "unknown event type",
			event:  home.Event{Type: "something_else"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topic, retained, ok := eventTopic(tt.event)
			if ok != tt.wantOK {
				t.Fatalf("eventTopic() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if topic != tt.wantTopic {
				t.Errorf("eventTopic() topic = %q, want %q", topic, tt.wantTopic)
			}
			if retained != tt.wantRetained {
				t.Errorf("eventTopic() retained = %v, want %v", retained, tt.wantRetained)
			}
		})
	}
}

func TestClimateMessage(t *testing.T) {
	reading, err := action.ParseReading("27.70_42.00")
	if err != nil {
		t.Fatalf("ParseReading() error = %v", err)
	}

	topic, payload, err := climateMessage(2, action.ID(5250), reading)
	if err != nil {
		t.Fatalf("climateMessage() error = %v", err)
	}
	if topic != "kotakee/home/2/climate/5250" {
		t.Errorf("climateMessage() topic = %q", topic)
	}

	var got climateReading
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got.RoomID != 2 || got.ActionID != 5250 {
		t.Errorf("payload ids = %d/%d, want 2/5250", got.RoomID, got.ActionID)
	}
	if got.TempC != 27.70 || got.TempF != 82 || got.Humidity != 42.00 {
		t.Errorf("payload = %+v", got)
	}
}
