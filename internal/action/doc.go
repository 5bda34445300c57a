// Package action defines the fixed action-id vocabulary shared between the
// coordinator, the client dashboards, and the hardware modules.
//
// Every capability a module can perform (lighting, curtains, remote emulation,
// switches, knobs, LED strip scenes) and every event it can report (motion,
// door contact, temperature/humidity, admin signals) is identified by a numeric
// id inside a fixed band. Band membership decides which state-transition policy
// applies, so the bands are modelled here as an explicit lookup table rather
// than scattered range checks.
//
// # Key Types
//
//   - ID: numeric action identifier
//   - Category: the band an id belongs to
//   - Reading: a typed temperature/humidity sensor payload
//
// The id space is closed: there is no dynamic registration. Ids must stay in
// sync with the client applications and module firmware.
package action
