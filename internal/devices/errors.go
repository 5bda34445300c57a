package devices

import "errors"

var (
	// ErrRequestFailed is returned when a device request cannot be delivered
	// or the device answers with a non-2xx status.
	ErrRequestFailed = errors.New("devices: request failed")
)
