package rules

import (
	"encoding/json"
	"fmt"

	"github.com/kotakee/kotakee-core/internal/action"
)

// Kind discriminates the four rule behaviours.
type Kind string

// Kind constants. The string values double as the wire-format "function"
// discriminator, kept stable for client compatibility.
const (
	KindTimeout     Kind = "timeout"
	KindCommand     Kind = "command"
	KindTemperature Kind = "temperatureOnOff"
	KindHumidity    Kind = "humidityOnOff"
)

// Table maps input action ids to their rules for one room.
type Table map[action.ID]Rule

// Rule is a tagged union over the four rule kinds. Exactly one payload field
// is populated, selected by Kind.
type Rule struct {
	Kind Kind

	// States holds timeout behaviour keyed by the reported value
	// (commonly 1 for "motion detected", 0 for "door opened").
	States map[int]TriggerSpec

	// Commands holds shell-command behaviour keyed by the reported value.
	Commands map[int]CommandSpec

	// Threshold holds temperature or humidity on/off behaviour.
	Threshold *ThresholdSpec
}

// TriggerSpec describes the reaction to one reported value of a timeout rule.
type TriggerSpec struct {
	// Start maps target actions to effects applied immediately.
	Start map[action.ID]StartAction `json:"start,omitempty"`

	// Timeout maps target actions to effects applied after a quiet period.
	Timeout map[action.ID]TimeoutAction `json:"timeout,omitempty"`

	// Block suppresses a timeout effect when a conditioning action currently
	// holds a given state: target action -> conditioning action -> state.
	Block BlockMap `json:"block,omitempty"`
}

// StartAction is an immediate effect, optionally gated by time of day.
type StartAction struct {
	ToState    int        `json:"toState"`
	TimeBounds TimeBounds `json:"timeBounds,omitempty"`
}

// TimeoutAction is a deferred effect, optionally gated by time of day.
// Duration is in milliseconds, matching the wire format used by clients.
type TimeoutAction struct {
	Duration   int        `json:"duration"`
	ToState    int        `json:"toState"`
	TimeBounds TimeBounds `json:"timeBounds,omitempty"`
}

// BlockMap maps a triggered target action to the conditioning action states
// that suppress it.
type BlockMap map[action.ID]map[action.ID]int

// CommandSpec describes a shell command, optionally suppressed when any
// conditioning action holds the given state.
type CommandSpec struct {
	Command string            `json:"command"`
	Block   map[action.ID]int `json:"block,omitempty"`
}

// ThresholdSpec describes on/off threshold behaviour for a climate value.
// Values at or above On apply OnActions, at or below Off apply OffActions,
// and strictly between the two nothing happens (hysteresis dead-band).
type ThresholdSpec struct {
	On         int               `json:"on"`
	Off        int               `json:"off"`
	OnActions  map[action.ID]int `json:"onActions"`
	OffActions map[action.ID]int `json:"offActions"`
}

// ruleWire is the JSON representation of a Rule. The function field selects
// which of the remaining fields are meaningful.
type ruleWire struct {
	Function string `json:"function"`

	States   map[int]TriggerSpec `json:"states,omitempty"`
	Commands map[int]CommandSpec `json:"commands,omitempty"`

	On         *int              `json:"on,omitempty"`
	Off        *int              `json:"off,omitempty"`
	OnActions  map[action.ID]int `json:"onActions,omitempty"`
	OffActions map[action.ID]int `json:"offActions,omitempty"`
}

// UnmarshalJSON resolves the wire-format function discriminator into the
// typed payload. Unknown functions and missing mandatory fields fail here so
// a malformed table is rejected before it can replace a live one.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var w ruleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch Kind(w.Function) {
	case KindTimeout:
		if len(w.States) == 0 {
			return fmt.Errorf("%w: timeout rule has no states", ErrMissingField)
		}
		*r = Rule{Kind: KindTimeout, States: w.States}
	case KindCommand:
		if len(w.Commands) == 0 {
			return fmt.Errorf("%w: command rule has no commands", ErrMissingField)
		}
		*r = Rule{Kind: KindCommand, Commands: w.Commands}
	case KindTemperature, KindHumidity:
		if w.On == nil || w.Off == nil || w.OnActions == nil || w.OffActions == nil {
			return fmt.Errorf("%w: %s rule requires on, off, onActions and offActions", ErrMissingField, w.Function)
		}
		*r = Rule{
			Kind: Kind(w.Function),
			Threshold: &ThresholdSpec{
				On:         *w.On,
				Off:        *w.Off,
				OnActions:  w.OnActions,
				OffActions: w.OffActions,
			},
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFunction, w.Function)
	}
	return nil
}

// MarshalJSON writes the wire format with the function discriminator.
func (r Rule) MarshalJSON() ([]byte, error) {
	w := ruleWire{Function: string(r.Kind)}
	switch r.Kind {
	case KindTimeout:
		w.States = r.States
	case KindCommand:
		w.Commands = r.Commands
	case KindTemperature, KindHumidity:
		if r.Threshold != nil {
			on, off := r.Threshold.On, r.Threshold.Off
			w.On, w.Off = &on, &off
			w.OnActions = r.Threshold.OnActions
			w.OffActions = r.Threshold.OffActions
		}
	}
	return json.Marshal(w)
}
