package rules

import (
	"context"
	"os/exec"
	"time"

	"github.com/kotakee/kotakee-core/internal/action"
)

// Logger defines the logging interface used by the Engine.
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

// Controller is the state surface the engine drives. Implemented by the home
// model.
type Controller interface {
	// ActionState returns the current recorded state of an action in a room.
	// ok is false when the room or action does not exist.
	ActionState(roomID int, id action.ID) (state int, ok bool)

	// ActionToggle drives an action toward a target state. Requests that
	// match the current state are no-ops. Rule effects always actuate, so
	// the engine passes virtual=false; the flag exists for client-initiated
	// state repair.
	ActionToggle(ctx context.Context, roomID int, id action.ID, toState int, virtual bool) error

	// ResetInputState rewinds an input action's recorded state after a fired
	// timeout, so the next report is seen as a fresh transition.
	ResetInputState(roomID int, id action.ID, state int)
}

// Gate reports whether input processing is currently suppressed.
type Gate interface {
	InputDisabled() bool
}

// CommandRunner executes a shell command on behalf of a command rule.
type CommandRunner interface {
	Run(ctx context.Context, command string) error
}

// ShellRunner runs commands through /bin/sh without waiting for completion.
type ShellRunner struct{}

// Run starts the command and returns once it has been spawned.
func (ShellRunner) Run(_ context.Context, command string) error {
	cmd := exec.Command("/bin/sh", "-c", command)
	return cmd.Start()
}

// Engine evaluates rule tables against reported input events.
//
// Thread Safety: all methods are safe for concurrent use.
type Engine struct {
	ctrl   Controller
	gate   Gate
	runner CommandRunner
	timers *timerRegistry
	logger Logger

	// now and afterFunc are swappable for tests.
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewEngine creates a rule engine.
//
// Parameters:
//   - ctrl: State surface to read and drive
//   - gate: Input kill-switch check (may be nil, meaning never disabled)
//   - runner: Shell command executor (may be nil, disabling command rules)
//   - logger: Logger instance (may be nil)
func NewEngine(ctrl Controller, gate Gate, runner CommandRunner, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		ctrl:      ctrl,
		gate:      gate,
		runner:    runner,
		timers:    newTimerRegistry(),
		logger:    logger,
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// HandleValue processes a numeric input report against the room's table.
//
// Command rules bypass the input gate so that clients can always reach
// explicitly requested commands. Everything else is dropped while inputs are
// disabled.
//
// Returns true when the report matched a rule entry and produced an effect
// (immediate, scheduled or command), false when it was ignored.
func (e *Engine) HandleValue(ctx context.Context, roomID int, id action.ID, table Table, value int) bool {
	rule, ok := table[id]
	if !ok {
		return false
	}

	switch rule.Kind {
	case KindCommand:
		return e.runCommand(ctx, roomID, id, rule, value)
	case KindTimeout:
		if e.inputsDisabled() {
			e.logger.Debug("input dropped, inputs disabled", "room", roomID, "action", int(id))
			return false
		}
		return e.runTimeout(ctx, roomID, id, rule, value)
	default:
		// Threshold rules require a climate reading, not a bare value.
		e.logger.Warn("numeric report against non-numeric rule", "room", roomID, "action", int(id), "function", string(rule.Kind))
		return false
	}
}

// HandleReading processes a climate reading against the room's table.
//
// Temperature rules threshold the reading in Fahrenheit, humidity rules the
// rounded relative humidity. Values inside the dead-band produce no effect.
func (e *Engine) HandleReading(ctx context.Context, roomID int, id action.ID, table Table, reading action.Reading) bool {
	if e.inputsDisabled() {
		e.logger.Debug("reading dropped, inputs disabled", "room", roomID, "action", int(id))
		return false
	}

	rule, ok := table[id]
	if !ok {
		return false
	}

	var value int
	switch rule.Kind {
	case KindTemperature:
		value = reading.Fahrenheit()
	case KindHumidity:
		value = reading.HumidityRounded()
	default:
		e.logger.Warn("climate report against non-climate rule", "room", roomID, "action", int(id), "function", string(rule.Kind))
		return false
	}

	t := rule.Threshold
	switch {
	case value >= t.On:
		e.applyTargets(ctx, roomID, t.OnActions)
	case value <= t.Off:
		e.applyTargets(ctx, roomID, t.OffActions)
	default:
		return false
	}
	return true
}

func (e *Engine) inputsDisabled() bool {
	return e.gate != nil && e.gate.InputDisabled()
}

func (e *Engine) runCommand(ctx context.Context, roomID int, id action.ID, rule Rule, value int) bool {
	spec, ok := rule.Commands[value]
	if !ok {
		return false
	}
	for cond, blockState := range spec.Block {
		if state, ok := e.ctrl.ActionState(roomID, cond); ok && state == blockState {
			e.logger.Debug("command blocked by conditioning state", "room", roomID, "action", int(id), "blockedBy", int(cond))
			return false
		}
	}
	if e.runner == nil {
		e.logger.Warn("command rule matched but no runner configured", "room", roomID, "action", int(id))
		return false
	}
	if err := e.runner.Run(ctx, spec.Command); err != nil {
		e.logger.Error("command failed to start", "room", roomID, "action", int(id), "error", err)
		return false
	}
	e.logger.Info("command started", "room", roomID, "action", int(id), "value", value)
	return true
}

func (e *Engine) runTimeout(ctx context.Context, roomID int, id action.ID, rule Rule, value int) bool {
	spec, ok := rule.States[value]
	if !ok {
		return false
	}

	now := e.now()
	acted := false

	for target, start := range spec.Start {
		if !start.TimeBounds.Contains(now) {
			continue
		}
		if err := e.ctrl.ActionToggle(ctx, roomID, target, start.ToState, false); err != nil {
			e.logger.Error("start effect failed", "room", roomID, "action", int(id), "target", int(target), "error", err)
			continue
		}
		acted = true
	}

	if len(spec.Timeout) == 0 {
		return acted
	}

	// One bump covers the whole batch: any of its callbacks is superseded by
	// the next report for this input action.
	key := timerKey{roomID: roomID, id: id}
	gen := e.timers.bump(key)

	for target, to := range spec.Timeout {
		if !to.TimeBounds.Contains(now) {
			continue
		}
		e.afterFunc(time.Duration(to.Duration)*time.Millisecond, func() {
			e.fireTimeout(key, gen, target, to.ToState, spec.Block)
		})
		acted = true
	}
	return acted
}

// fireTimeout runs when a scheduled quiet period elapses. It declines when a
// newer report superseded it, when inputs have been disabled since, or when a
// conditioning action blocks the target. Otherwise it drives the target and
// rewinds the input action so the next report restarts the cycle.
func (e *Engine) fireTimeout(key timerKey, gen uint64, target action.ID, toState int, block BlockMap) {
	if e.timers.current(key) != gen {
		return
	}
	if e.inputsDisabled() {
		return
	}
	for cond, blockState := range block[target] {
		if state, ok := e.ctrl.ActionState(key.roomID, cond); ok && state == blockState {
			e.logger.Debug("timeout blocked by conditioning state", "room", key.roomID, "action", int(key.id), "target", int(target), "blockedBy", int(cond))
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.ctrl.ActionToggle(ctx, key.roomID, target, toState, false); err != nil {
		e.logger.Error("timeout effect failed", "room", key.roomID, "action", int(key.id), "target", int(target), "error", err)
		return
	}
	e.ctrl.ResetInputState(key.roomID, key.id, 0)
	e.logger.Info("timeout fired", "room", key.roomID, "action", int(key.id), "target", int(target), "toState", toState)
}

func (e *Engine) applyTargets(ctx context.Context, roomID int, targets map[action.ID]int) {
	for target, toState := range targets {
		if err := e.ctrl.ActionToggle(ctx, roomID, target, toState, false); err != nil {
			e.logger.Error("threshold effect failed", "room", roomID, "target", int(target), "error", err)
		}
	}
}
