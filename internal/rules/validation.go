package rules

import (
	"fmt"

	"github.com/kotakee/kotakee-core/internal/action"
)

// ValidateTable checks structural invariants that the JSON layer cannot
// express: input-band keys, positive durations, well-formed time bounds and
// non-empty commands. Errors carry the offending action id.
func ValidateTable(table Table) error {
	for id, rule := range table {
		if !action.IsInput(id) {
			return fmt.Errorf("action %d: %w", int(id), ErrNotInputAction)
		}
		switch rule.Kind {
		case KindTimeout:
			if err := validateTriggers(rule.States); err != nil {
				return fmt.Errorf("action %d: %w", int(id), err)
			}
		case KindCommand:
			for value, spec := range rule.Commands {
				if spec.Command == "" {
					return fmt.Errorf("action %d value %d: %w: command", int(id), value, ErrMissingField)
				}
			}
		case KindTemperature, KindHumidity:
			if rule.Threshold == nil {
				return fmt.Errorf("action %d: %w: threshold", int(id), ErrMissingField)
			}
		default:
			return fmt.Errorf("action %d: %w: %q", int(id), ErrUnknownFunction, string(rule.Kind))
		}
	}
	return nil
}

func validateTriggers(states map[int]TriggerSpec) error {
	for value, spec := range states {
		for target, start := range spec.Start {
			if !start.TimeBounds.Valid() {
				return fmt.Errorf("value %d target %d: %w", value, int(target), ErrInvalidTimeBounds)
			}
		}
		for target, to := range spec.Timeout {
			if to.Duration <= 0 {
				return fmt.Errorf("value %d target %d: %w", value, int(target), ErrInvalidDuration)
			}
			if !to.TimeBounds.Valid() {
				return fmt.Errorf("value %d target %d: %w", value, int(target), ErrInvalidTimeBounds)
			}
		}
	}
	return nil
}
