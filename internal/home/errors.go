package home

import "errors"

// Domain errors for the home package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, home.ErrRoomNotFound) {
//	    // map to 404
//	}
var (
	// ErrRoomNotFound is returned when an operation names a room id that is
	// not configured.
	ErrRoomNotFound = errors.New("home: room not found")

	// ErrActionNotFound is returned when no module in the room implements the
	// requested action.
	ErrActionNotFound = errors.New("home: action not implemented in room")

	// ErrModuleNotFound is returned when no module matches the given address.
	ErrModuleNotFound = errors.New("home: module not found")

	// ErrServerDisabled is returned when the server-wide kill switch rejects
	// an operation.
	ErrServerDisabled = errors.New("home: server disabled")

	// ErrDuplicateAction is returned at construction when two modules in the
	// same room claim the same action id.
	ErrDuplicateAction = errors.New("home: duplicate action id in room")
)
