// Package home holds the in-memory model of the house: modules, rooms and the
// Home aggregate that coordinates them.
//
// State lives in memory only and is rebuilt on startup from configuration plus
// device self-reports; the history store is an audit trail, not a source of
// truth.
//
// # Key Types
//
//   - Module: one hardware endpoint, its supported actions and recorded states
//   - Room: a named group of modules with a per-room input-rule table
//   - Home: the aggregate; kill switches, change timestamps, event fan-out
//
// # Change notification
//
// Home keeps two millisecond timestamps, one for home status (weather, kill
// switches, rule tables) and one for action states. Writes that change nothing
// never advance a timestamp, so long-polling clients are only woken for real
// changes.
//
// # Thread Safety
//
// All exported methods on Module, Room and Home are safe for concurrent use.
package home
