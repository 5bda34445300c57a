package home

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kotakee/kotakee-core/internal/action"
	"github.com/kotakee/kotakee-core/internal/rules"
)

// RuleEngine is the slice of the rules engine the home model drives.
type RuleEngine interface {
	HandleValue(ctx context.Context, roomID int, id action.ID, table rules.Table, value int) bool
	HandleReading(ctx context.Context, roomID int, id action.ID, table rules.Table, reading action.Reading) bool
}

// WeatherService fetches the opaque weather payload for the configured
// location.
type WeatherService interface {
	Fetch(ctx context.Context, doNotQuery bool) (json.RawMessage, error)
}

// Home is the aggregate root: rooms, kill switches, the weather payload and
// the change timestamps that drive long-polling clients.
type Home struct {
	mu                  sync.Mutex
	rooms               map[int]*Room
	weather             json.RawMessage
	lastStatusMs        int64
	lastActionsMs       int64
	serverDisabled      bool
	moduleInputDisabled bool

	engine     RuleEngine
	sink       EventSink
	telemetry  TelemetryWriter
	weatherSvc WeatherService
	logger     Logger
	now        func() time.Time
}

// NewHome assembles the aggregate from its rooms.
func NewHome(rooms []*Room, logger Logger) *Home {
	if logger == nil {
		logger = noopLogger{}
	}
	byID := make(map[int]*Room, len(rooms))
	for _, r := range rooms {
		byID[r.ID()] = r
	}
	// Boot counts as a change on both surfaces so a fresh poller always gets
	// an initial payload.
	now := time.Now().UnixMilli()
	return &Home{
		rooms:         byID,
		lastStatusMs:  now,
		lastActionsMs: now,
		logger:        logger,
		now:           time.Now,
	}
}

// SetEngine wires the rule engine. Called once during startup, after the
// engine has been constructed around this Home.
func (h *Home) SetEngine(engine RuleEngine) { h.engine = engine }

// SetEventSink wires the change-event sink.
func (h *Home) SetEventSink(sink EventSink) { h.sink = sink }

// SetTelemetry wires the climate telemetry writer.
func (h *Home) SetTelemetry(w TelemetryWriter) { h.telemetry = w }

// SetWeatherService wires the weather fetcher.
func (h *Home) SetWeatherService(svc WeatherService) { h.weatherSvc = svc }

// Room returns a configured room.
func (h *Home) Room(roomID int) (*Room, error) {
	r, ok := h.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", roomID, ErrRoomNotFound)
	}
	return r, nil
}

// ServerDisabled reports the server-wide kill switch.
func (h *Home) ServerDisabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.serverDisabled
}

// InputDisabled reports whether input processing is suppressed, by either
// kill switch. Satisfies the rule engine's gate.
func (h *Home) InputDisabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.serverDisabled || h.moduleInputDisabled
}

// ActionToggle drives one action toward a target state. No-op requests
// (already at state, unsupported action) are logged and absorbed; only a
// recorded change advances the action-states timestamp.
//
// A virtual toggle records the target state without actuating, even on a
// physical module, so clients can resolve a recorded/hardware
// desynchronization.
func (h *Home) ActionToggle(ctx context.Context, roomID int, id action.ID, toState int, virtual bool) error {
	if h.ServerDisabled() {
		return ErrServerDisabled
	}
	room, err := h.Room(roomID)
	if err != nil {
		return err
	}
	m, err := room.ModuleFor(id)
	if err != nil {
		return err
	}

	old, _ := m.ActionState(id)
	if m.Toggle(ctx, id, toState, virtual) {
		h.markActionChange(roomID, id, old, toState)
	}
	return nil
}

// ActionSwitch flips an action to its opposite stable state using the
// band's transition policy. Settling states and bands without a flip policy
// return the policy error unexecuted.
func (h *Home) ActionSwitch(ctx context.Context, roomID int, id action.ID, ledMode int) error {
	if h.ServerDisabled() {
		return ErrServerDisabled
	}
	room, err := h.Room(roomID)
	if err != nil {
		return err
	}
	m, err := room.ModuleFor(id)
	if err != nil {
		return err
	}
	current, err := m.ActionState(id)
	if err != nil {
		return err
	}

	target, err := action.SwitchTarget(id, current, ledMode)
	if err != nil {
		h.logger.Warn("switch rejected", "room", roomID, "action", int(id), "state", current, "error", err)
		return err
	}
	return h.ActionToggle(ctx, roomID, id, target, false)
}

// ActionToggleAll drives every output action in the house toward on or off.
// Actions already at the target side, inputs, settling states and bands
// without a flip policy are skipped.
func (h *Home) ActionToggleAll(ctx context.Context, toOn bool) error {
	if h.ServerDisabled() {
		return ErrServerDisabled
	}
	for roomID, room := range h.rooms {
		for id, state := range room.ActionStates() {
			if action.IsInput(id) {
				continue
			}
			if toOn && action.IsOnState(state) {
				continue
			}
			if !toOn && action.IsOffState(state) {
				continue
			}
			target, err := action.SwitchTarget(id, state, 0)
			if err != nil {
				h.logger.Debug("toggle-all skipped action", "room", roomID, "action", int(id), "state", state, "error", err)
				continue
			}
			if err := h.ActionToggle(ctx, roomID, id, target, false); err != nil {
				h.logger.Warn("toggle-all action failed", "room", roomID, "action", int(id), "error", err)
			}
		}
	}
	return nil
}

// ModuleStateUpdate records a device self-report. Reports land even while the
// kill switches are on, so recorded state never drifts from the hardware.
func (h *Home) ModuleStateUpdate(roomID int, id action.ID, toState int) error {
	room, err := h.Room(roomID)
	if err != nil {
		return err
	}
	m, err := room.ModuleFor(id)
	if err != nil {
		return err
	}

	old, _ := m.ActionState(id)
	if m.StateUpdate(id, toState) {
		h.markActionChange(roomID, id, old, toState)
	}
	return nil
}

// ModuleInput processes an input report against the room's rule table.
// String payloads are climate readings; numeric payloads are recorded as the
// input action's state before the rules run.
func (h *Home) ModuleInput(ctx context.Context, roomID int, id action.ID, value string, isString bool) error {
	if h.ServerDisabled() {
		return ErrServerDisabled
	}
	room, err := h.Room(roomID)
	if err != nil {
		return err
	}
	if !action.IsInput(id) {
		return fmt.Errorf("action %d is not an input: %w", int(id), ErrActionNotFound)
	}
	if h.engine == nil {
		return fmt.Errorf("home: rule engine not wired")
	}

	if isString {
		reading, err := action.ParseReading(value)
		if err != nil {
			return err
		}
		if m, merr := room.ModuleFor(id); merr == nil {
			m.SetReading(id, reading.Raw)
		}
		if h.telemetry != nil {
			h.telemetry.WriteClimate(roomID, id, reading)
		}
		h.engine.HandleReading(ctx, roomID, id, room.InputRules(), reading)
		return nil
	}

	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("input value %q: %w", value, action.ErrMalformedReading)
	}
	if m, merr := room.ModuleFor(id); merr == nil {
		old, _ := m.ActionState(id)
		if m.StateUpdate(id, v) {
			h.markActionChange(roomID, id, old, v)
		}
	}
	h.engine.HandleValue(ctx, roomID, id, room.InputRules(), v)
	return nil
}

// ModuleInputModify replaces a room's rule table. The table is validated
// before the swap; a change advances the home-status timestamp.
func (h *Home) ModuleInputModify(roomID int, table rules.Table) error {
	room, err := h.Room(roomID)
	if err != nil {
		return err
	}
	if err := room.SetInputRules(table); err != nil {
		return err
	}
	h.markStatusChange()
	return nil
}

// SetServerDisabled flips the server-wide kill switch. Re-enabling the
// server also clears the input kill switch.
func (h *Home) SetServerDisabled(disabled bool) {
	h.mu.Lock()
	if h.serverDisabled == disabled {
		h.mu.Unlock()
		return
	}
	wasDisabled := h.serverDisabled
	h.serverDisabled = disabled
	if wasDisabled && !disabled {
		h.moduleInputDisabled = false
	}
	h.bumpStatusLocked()
	h.mu.Unlock()

	h.logger.Info("server disabled changed", "disabled", disabled)
	h.publishStatusEvent()
}

// SetModuleInputDisabled flips the input kill switch.
func (h *Home) SetModuleInputDisabled(disabled bool) {
	h.mu.Lock()
	if h.moduleInputDisabled == disabled {
		h.mu.Unlock()
		return
	}
	h.moduleInputDisabled = disabled
	h.bumpStatusLocked()
	h.mu.Unlock()

	h.logger.Info("module input disabled changed", "disabled", disabled)
	h.publishStatusEvent()
}

// ModuleUpdate re-registers a module by network address: push its capability
// assignment and ask it to re-report all states.
func (h *Home) ModuleUpdate(ctx context.Context, addr string) error {
	for _, room := range h.rooms {
		if m, ok := room.ModuleByAddress(addr); ok {
			if err := m.PushCapabilities(ctx); err != nil {
				return fmt.Errorf("push capabilities to %s: %w", addr, err)
			}
			m.ReportAllStates(ctx)
			return nil
		}
	}
	return fmt.Errorf("address %s: %w", addr, ErrModuleNotFound)
}

// RequestAllActionStates asks every module to re-report every output action.
func (h *Home) RequestAllActionStates(ctx context.Context) {
	for _, room := range h.rooms {
		for _, m := range room.Modules() {
			m.ReportAllStates(ctx)
		}
	}
}

// UpdateWeather refreshes the opaque weather payload and advances the
// home-status timestamp.
func (h *Home) UpdateWeather(ctx context.Context, doNotQuery bool) error {
	if h.weatherSvc == nil {
		return fmt.Errorf("home: weather service not wired")
	}
	payload, err := h.weatherSvc.Fetch(ctx, doNotQuery)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.weather = payload
	h.bumpStatusLocked()
	h.mu.Unlock()

	h.publishStatusEvent()
	return nil
}

// ActionState returns the recorded state of an action. Satisfies the rule
// engine's controller.
func (h *Home) ActionState(roomID int, id action.ID) (int, bool) {
	room, err := h.Room(roomID)
	if err != nil {
		return 0, false
	}
	m, err := room.ModuleFor(id)
	if err != nil {
		return 0, false
	}
	state, err := m.ActionState(id)
	if err != nil {
		return 0, false
	}
	return state, true
}

// ResetInputState rewinds an input action's recorded state after a fired
// timeout. Satisfies the rule engine's controller.
func (h *Home) ResetInputState(roomID int, id action.ID, state int) {
	room, err := h.Room(roomID)
	if err != nil {
		return
	}
	m, err := room.ModuleFor(id)
	if err != nil {
		return
	}
	old, _ := m.ActionState(id)
	if m.SetActionState(id, state) {
		h.markActionChange(roomID, id, old, state)
	}
}

// StatusPayload is the home-status long-poll response.
type StatusPayload struct {
	ModulesCount        int                `json:"modulesCount"`
	WeatherData         json.RawMessage    `json:"weatherData,omitempty"`
	LastUpdate          int64              `json:"lastUpdate"`
	ServerDisabled      bool               `json:"serverDisabled"`
	ModuleInputDisabled bool               `json:"moduleInputDisabled"`
	Rooms               map[int]RoomStatus `json:"rooms"`
}

// RoomStatus is one room's slice of the home-status payload.
type RoomStatus struct {
	Name       string      `json:"name"`
	InputRules rules.Table `json:"inputRules,omitempty"`
}

// HomeStatus returns the status payload, or nil when nothing changed since
// the given millisecond timestamp.
func (h *Home) HomeStatus(since int64) *StatusPayload {
	h.mu.Lock()
	if since >= h.lastStatusMs {
		h.mu.Unlock()
		return nil
	}
	payload := &StatusPayload{
		WeatherData:         h.weather,
		LastUpdate:          h.lastStatusMs,
		ServerDisabled:      h.serverDisabled,
		ModuleInputDisabled: h.moduleInputDisabled,
		Rooms:               make(map[int]RoomStatus, len(h.rooms)),
	}
	h.mu.Unlock()

	for id, room := range h.rooms {
		payload.ModulesCount += len(room.Modules())
		payload.Rooms[id] = RoomStatus{Name: room.Name(), InputRules: room.InputRules()}
	}
	return payload
}

// StatesPayload is the action-states long-poll response.
type StatesPayload struct {
	LastUpdate int64                        `json:"lastUpdate"`
	Rooms      map[int]map[action.ID]int    `json:"rooms"`
	Readings   map[int]map[action.ID]string `json:"readings,omitempty"`
}

// ActionStates returns the states payload, or nil when nothing changed since
// the given millisecond timestamp.
func (h *Home) ActionStates(since int64) *StatesPayload {
	h.mu.Lock()
	if since >= h.lastActionsMs {
		h.mu.Unlock()
		return nil
	}
	payload := &StatesPayload{
		LastUpdate: h.lastActionsMs,
		Rooms:      make(map[int]map[action.ID]int, len(h.rooms)),
		Readings:   make(map[int]map[action.ID]string),
	}
	h.mu.Unlock()

	for id, room := range h.rooms {
		payload.Rooms[id] = room.ActionStates()
		if readings := room.Readings(); len(readings) > 0 {
			payload.Readings[id] = readings
		}
	}
	return payload
}

// markActionChange advances the action-states timestamp and fans out the
// change event.
func (h *Home) markActionChange(roomID int, id action.ID, oldState, newState int) {
	h.mu.Lock()
	h.bumpActionsLocked()
	h.mu.Unlock()

	if h.sink == nil {
		return
	}
	event := newEvent(EventActionState)
	event.RoomID = roomID
	event.ActionID = id
	event.OldState = oldState
	event.NewState = newState
	h.sink.Publish(event)
}

func (h *Home) markStatusChange() {
	h.mu.Lock()
	h.bumpStatusLocked()
	h.mu.Unlock()
	h.publishStatusEvent()
}

func (h *Home) publishStatusEvent() {
	if h.sink == nil {
		return
	}
	h.sink.Publish(newEvent(EventHomeStatus))
}

// bumpActionsLocked advances the action-states timestamp, staying strictly
// monotonic even within one millisecond.
func (h *Home) bumpActionsLocked() {
	ts := h.now().UnixMilli()
	if ts <= h.lastActionsMs {
		ts = h.lastActionsMs + 1
	}
	h.lastActionsMs = ts
}

func (h *Home) bumpStatusLocked() {
	ts := h.now().UnixMilli()
	if ts <= h.lastStatusMs {
		ts = h.lastStatusMs + 1
	}
	h.lastStatusMs = ts
}
