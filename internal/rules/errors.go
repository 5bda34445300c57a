package rules

import "errors"

// Domain errors for the rules package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, rules.ErrUnknownFunction) {
//	    // reject the submitted table
//	}
var (
	// ErrUnknownFunction is returned when a rule names a function that the
	// engine does not implement.
	ErrUnknownFunction = errors.New("rules: unknown function")

	// ErrMissingField is returned when a rule omits a mandatory field for
	// its function kind.
	ErrMissingField = errors.New("rules: missing mandatory field")

	// ErrNotInputAction is returned when a table keys a rule on an action id
	// outside the input bands.
	ErrNotInputAction = errors.New("rules: rule keyed on non-input action")

	// ErrInvalidTimeBounds is returned when a timeBounds array is not a
	// multiple of four entries.
	ErrInvalidTimeBounds = errors.New("rules: timeBounds length not a multiple of 4")

	// ErrInvalidDuration is returned when a timeout entry has a non-positive
	// duration.
	ErrInvalidDuration = errors.New("rules: timeout duration must be positive")
)
