package action

import (
	"errors"
	"testing"
)

func TestSwitchTarget(t *testing.T) {
	tests := []struct {
		name    string
		id      ID
		current int
		ledMode int
		want    int
		wantErr error
	}{
		{"remote off to on", 250, 10, 0, 12, nil},
		{"remote on to off", 260, 12, 0, 10, nil},
		{"remote settling rejected", 250, 11, 0, 0, ErrSettling},
		{"switch off to on", 350, 20, 0, 22, nil},
		{"switch on to off", 354, 22, 0, 20, nil},
		{"switch settling rejected", 350, 21, 0, 0, ErrSettling},
		{"knob off to on", 450, 30, 0, 32, nil},
		{"knob settling rejected", 450, 31, 0, 0, ErrSettling},
		{"led strip off to default scene", 1000, 100, 0, 107, nil},
		{"led strip off to chosen scene", 1000, 100, 103, 103, nil},
		{"led strip scene back to off", 1000, 107, 0, 100, nil},
		{"lighting off to on", 50, 0, 0, 1, nil},
		{"lighting on to off", 50, 1, 0, 0, nil},
		{"lighting odd state to off", 50, 7, 0, 0, nil},
		{"curtains have no policy", 150, 0, 0, 0, ErrNoPolicy},
		{"unknown id has no policy", 9999, 0, 0, 0, ErrNoPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SwitchTarget(tt.id, tt.current, tt.ledMode)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SwitchTarget(%d, %d) error = %v, want %v", tt.id, tt.current, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("SwitchTarget(%d, %d) = %d, want %d", tt.id, tt.current, got, tt.want)
			}
		})
	}
}

func TestOnOffStateSets(t *testing.T) {
	for _, s := range []int{1, 12, 22, 32, 107} {
		if !IsOnState(s) {
			t.Errorf("IsOnState(%d) = false, want true", s)
		}
		if IsOffState(s) {
			t.Errorf("IsOffState(%d) = true, want false", s)
		}
	}
	for _, s := range []int{0, 10, 20, 30, 100} {
		if !IsOffState(s) {
			t.Errorf("IsOffState(%d) = false, want true", s)
		}
	}
	// Settling states belong to neither set.
	for _, s := range []int{11, 21, 31} {
		if IsOnState(s) || IsOffState(s) {
			t.Errorf("settling state %d classified as on/off", s)
		}
	}
}
