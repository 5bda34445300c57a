// Package devices is the outbound HTTP surface to module firmware.
//
// Modules expose a tiny GET-based protocol (stateToggle, stateVirtualToggle,
// stateGet) plus one POST endpoint that receives their action/pin assignment.
// Requests carry a bounded timeout and are never retried; devices correct any
// divergence through their own state reports.
package devices
