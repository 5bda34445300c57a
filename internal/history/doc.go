// Package history persists action-state transitions to SQLite as an audit
// trail. It is write-mostly: the coordinator records every observed change
// and exposes recent entries read-only over the API.
//
// The store is not a source of truth. Authoritative state lives in memory
// and is rebuilt from configuration plus device reports.
package history
