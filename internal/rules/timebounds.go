package rules

import "time"

// TimeBounds restricts an effect to windows of the day. The flat array holds
// one or more windows of four entries each:
//
//	[minHour, minMinute, maxHour, maxMinute, ...]
//
// An empty array means "always eligible". This flat layout is the wire format
// used by clients and rules files, kept as-is rather than reshaped into
// structs.
type TimeBounds []int

// Valid reports whether the array length is a multiple of four.
func (tb TimeBounds) Valid() bool {
	return len(tb)%4 == 0
}

// Contains reports whether the given time falls inside any window. An empty
// bounds array always matches.
//
// A window matches when the hour lies strictly between the bounds, or the
// time sits on a boundary hour on the permissive side of its minute value.
func (tb TimeBounds) Contains(t time.Time) bool {
	if len(tb) == 0 {
		return true
	}
	hr, min := t.Hour(), t.Minute()
	for i := 0; i+3 < len(tb); i += 4 {
		minHr, minMin, maxHr, maxMin := tb[i], tb[i+1], tb[i+2], tb[i+3]
		if hr > minHr && hr < maxHr {
			return true
		}
		if hr == maxHr && min <= maxMin {
			return true
		}
		if hr == minHr && min >= minMin {
			return true
		}
	}
	return false
}
