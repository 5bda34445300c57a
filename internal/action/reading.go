package action

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reading is a typed temperature/humidity sensor payload.
//
// Climate modules report a composite string "<celsius>_<humidityPct>"
// (e.g. "27.70_42.00"). It is parsed exactly once at the input boundary so the
// threshold rule handlers never touch the raw string.
type Reading struct {
	Celsius  float64
	Humidity float64

	// Raw is the original payload, kept verbatim for state output.
	Raw string
}

// ParseReading parses a composite climate payload.
//
// A payload with fewer than two underscore-delimited parts, or with
// non-numeric parts, is malformed. Extra trailing parts are ignored.
//
// Returns:
//   - Reading: The parsed payload
//   - error: ErrMalformedReading describing the problem
func ParseReading(raw string) (Reading, error) {
	parts := strings.Split(raw, "_")
	if len(parts) < 2 {
		return Reading{}, fmt.Errorf("%w: %q has %d parts, want 2", ErrMalformedReading, raw, len(parts))
	}

	celsius, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: temperature %q: %w", ErrMalformedReading, parts[0], err)
	}
	humidity, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: humidity %q: %w", ErrMalformedReading, parts[1], err)
	}

	return Reading{Celsius: celsius, Humidity: humidity, Raw: raw}, nil
}

// Fahrenheit converts the temperature to Fahrenheit rounded to the nearest
// integer, which is the unit the threshold rules are configured in.
func (r Reading) Fahrenheit() int {
	return int(math.Round(r.Celsius*1.8 + 32))
}

// HumidityRounded returns the humidity percentage rounded to the nearest
// integer.
func (r Reading) HumidityRounded() int {
	return int(math.Round(r.Humidity))
}
