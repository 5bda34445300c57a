// Package api provides the HTTP REST API and WebSocket server for the
// KotakeeOS core.
//
// It exposes two surfaces:
//
//   - Client API under /api/v1 (JSON): action toggles, input injection,
//     rule updates, kill switches, long-poll status endpoints, and history.
//   - Device protocol at the root (plain GET, matching module firmware):
//     /moduleStateUpdate, /moduleInput, and /moduleUpdate.
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
