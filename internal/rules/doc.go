// Package rules implements the reactive input-rule engine.
//
// Each room carries a declarative table mapping input action ids (motion,
// door, climate, admin) to a rule. When a module reports an input event the
// engine dispatches on the rule kind:
//
//   - timeout: apply "start" effects immediately, then schedule "timeout"
//     effects that only fire if no newer report for the same input action
//     arrives before the duration elapses
//   - command: run a shell command, optionally suppressed by a block condition
//   - temperatureOnOff / humidityOnOff: threshold a climate reading against
//     on/off bounds with a dead-band in between
//
// # Timeout supersession
//
// Timeouts are never explicitly cancelled. Scheduling bumps a per
// (room, input action) generation counter; the fired callback re-reads the
// counter and declines when a newer report has bumped it since. This gives
// last-write-wins ordering per input action at the cost of a few harmless
// no-op callback firings.
//
// # Wire format
//
// Tables are stored as JSON (rules file on disk, and the moduleInputModify
// API). The wire format keeps a "function" discriminator string, but
// unmarshalling resolves it into a tagged union once, so runtime dispatch is
// a switch on Kind rather than string comparison.
//
// # Thread Safety
//
// Engine is safe for concurrent use. Timeout callbacks run on their own
// goroutines and synchronise through the generation registry and the
// Controller implementation.
package rules
