package action

import "errors"

// Domain errors for the action package.
var (
	// ErrSettling is returned when an action's current state is a transitional
	// value (11, 21, 31) that must not be toggled until the hardware settles.
	ErrSettling = errors.New("action: state is settling")

	// ErrNoPolicy is returned when an action id has no binary switch policy
	// (unknown band, or a band like curtains that is not switchable).
	ErrNoPolicy = errors.New("action: no switch policy for id")

	// ErrMalformedReading is returned when a climate payload cannot be parsed.
	ErrMalformedReading = errors.New("action: malformed climate reading")
)
