package home

import (
	"context"
	"sync"

	"github.com/kotakee/kotakee-core/internal/action"
)

// Logger defines the logging interface used by the home model.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DeviceClient is the outbound surface to module firmware. Implemented by the
// devices package.
type DeviceClient interface {
	// StateToggle asks the device to actuate an action toward a state.
	StateToggle(ctx context.Context, addr string, id action.ID, toState int) error

	// StateVirtualToggle asks the device to record a state without actuating.
	StateVirtualToggle(ctx context.Context, addr string, id action.ID, toState int) error

	// StateGet asks the device to re-report the current state of an action.
	StateGet(ctx context.Context, addr string, id action.ID) error

	// PushCapabilities sends the module its full action/pin assignment.
	PushCapabilities(ctx context.Context, addr string, caps Capabilities) error
}

// Capabilities is the payload pushed to a module on (re)registration.
type Capabilities struct {
	RoomID  int                 `json:"roomId"`
	Actions map[action.ID][]int `json:"actions"`
}

// Module is one hardware endpoint: an addressable device implementing a fixed
// set of actions. Virtual modules have no actuators; toggles against them only
// update recorded state on the device.
type Module struct {
	id      string
	roomID  int
	address string
	virtual bool

	// actions preserves the configured order for capability pushes and
	// re-report sweeps.
	actions []action.ID
	pins    map[action.ID][]int

	mu       sync.Mutex
	states   map[action.ID]int
	readings map[action.ID]string

	client DeviceClient
	logger Logger
}

// NewModule creates a module with every action state uninitialized.
func NewModule(id string, roomID int, address string, virtual bool, actions []action.ID, pins map[action.ID][]int, client DeviceClient, logger Logger) *Module {
	if logger == nil {
		logger = noopLogger{}
	}
	states := make(map[action.ID]int, len(actions))
	for _, a := range actions {
		states[a] = action.StateUninitialized
	}
	return &Module{
		id:       id,
		roomID:   roomID,
		address:  address,
		virtual:  virtual,
		actions:  append([]action.ID(nil), actions...),
		pins:     pins,
		states:   states,
		readings: make(map[action.ID]string),
		client:   client,
		logger:   logger,
	}
}

// ID returns the module identifier.
func (m *Module) ID() string { return m.id }

// Address returns the module's network address.
func (m *Module) Address() string { return m.address }

// Actions returns the supported action ids in configured order.
func (m *Module) Actions() []action.ID {
	return append([]action.ID(nil), m.actions...)
}

// Implements reports whether the module supports the action.
func (m *Module) Implements(id action.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[id]
	return ok
}

// ActionState returns the recorded state of an action.
func (m *Module) ActionState(id action.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[id]
	if !ok {
		return 0, ErrActionNotFound
	}
	return state, nil
}

// SetActionState records a state without touching the device. Returns true
// only when the recorded value changed.
func (m *Module) SetActionState(id action.ID, toState int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.states[id]
	if !ok {
		m.logger.Warn("state write for unsupported action", "module", m.id, "action", int(id))
		return false
	}
	if current == toState {
		return false
	}
	m.states[id] = toState
	return true
}

// StateUpdate records a device self-report. Device reports are ground truth
// and overwrite whatever was recorded optimistically.
func (m *Module) StateUpdate(id action.ID, toState int) bool {
	return m.SetActionState(id, toState)
}

// SetReading records the raw climate payload alongside the numeric state.
func (m *Module) SetReading(id action.ID, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[id]; !ok {
		return
	}
	m.readings[id] = raw
}

// Readings returns a copy of the raw climate payloads keyed by action id.
func (m *Module) Readings() map[action.ID]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[action.ID]string, len(m.readings))
	for id, raw := range m.readings {
		out[id] = raw
	}
	return out
}

// Toggle drives an action toward a target state.
//
// The target state is recorded before the device request goes out; if the
// request fails the recorded state stands until the device self-reports and
// corrects it. Requests matching the current state are dropped.
//
// A virtual request uses the no-actuation endpoint so the device records the
// state without driving hardware; clients use it to repair a recorded state
// that drifted from reality. Modules configured virtual always toggle that
// way.
//
// Returns true when the recorded state changed.
func (m *Module) Toggle(ctx context.Context, id action.ID, toState int, virtual bool) bool {
	m.mu.Lock()
	current, ok := m.states[id]
	if !ok {
		m.mu.Unlock()
		m.logger.Warn("toggle for unsupported action", "module", m.id, "action", int(id))
		return false
	}
	if current == toState {
		m.mu.Unlock()
		m.logger.Debug("toggle dropped, already at state", "module", m.id, "action", int(id), "state", toState)
		return false
	}
	m.states[id] = toState
	m.mu.Unlock()

	var err error
	if m.virtual || virtual {
		err = m.client.StateVirtualToggle(ctx, m.address, id, toState)
	} else {
		err = m.client.StateToggle(ctx, m.address, id, toState)
	}
	if err != nil {
		m.logger.Warn("device toggle request failed", "module", m.id, "action", int(id), "toState", toState, "error", err)
	}
	return true
}

// PushCapabilities sends the module its action/pin assignment.
func (m *Module) PushCapabilities(ctx context.Context) error {
	return m.client.PushCapabilities(ctx, m.address, Capabilities{
		RoomID:  m.roomID,
		Actions: m.capabilityActions(),
	})
}

func (m *Module) capabilityActions() map[action.ID][]int {
	caps := make(map[action.ID][]int, len(m.actions))
	for _, a := range m.actions {
		caps[a] = m.pins[a]
	}
	return caps
}

// ReportAllStates asks the device to re-report every supported action.
// Failures are logged per action; the sweep continues.
func (m *Module) ReportAllStates(ctx context.Context) {
	for _, a := range m.actions {
		if action.IsInput(a) {
			continue
		}
		if err := m.client.StateGet(ctx, m.address, a); err != nil {
			m.logger.Warn("state re-report request failed", "module", m.id, "action", int(a), "error", err)
		}
	}
}

// ActionStates returns a copy of the recorded states.
func (m *Module) ActionStates() map[action.ID]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[action.ID]int, len(m.states))
	for id, state := range m.states {
		out[id] = state
	}
	return out
}
