package action

// Per-band state vocabularies. Each three-state band uses a distinct numeric
// range so a raw state value is unambiguous in logs and dashboards:
// off / settling / on. Lighting is plain binary and LED strips use an off
// sentinel plus pre-programmed scene codes.
const (
	RemoteOff     = 10
	RemoteMoving  = 11
	RemoteOn      = 12
	SwitchOff     = 20
	SwitchMoving  = 21
	SwitchOn      = 22
	KnobOff       = 30
	KnobMoving    = 31
	KnobOn        = 32
	LEDStripOff   = 100
	LightingOff   = 0
	LightingOn    = 1
)

// DefaultLEDScene is the scene code used when a switch request does not name
// one explicitly.
const DefaultLEDScene = 107

// onStates and offStates are the "already at target" sets used by whole-home
// toggling: an action whose state is in the relevant set is skipped.
var (
	onStates  = map[int]struct{}{LightingOn: {}, RemoteOn: {}, SwitchOn: {}, KnobOn: {}, DefaultLEDScene: {}}
	offStates = map[int]struct{}{LightingOff: {}, RemoteOff: {}, SwitchOff: {}, KnobOff: {}, LEDStripOff: {}}
)

// IsOnState reports whether a state value counts as "on" for whole-home
// operations, across all bands.
func IsOnState(state int) bool {
	_, ok := onStates[state]
	return ok
}

// IsOffState reports whether a state value counts as "off" for whole-home
// operations, across all bands.
func IsOffState(state int) bool {
	_, ok := offStates[state]
	return ok
}

// switchPolicy describes a binary flip between two stable states. A current
// state matching neither (the settling value) must not be acted on.
type switchPolicy struct {
	off, on int
}

// switchPolicies maps each switchable category to its flip policy. Curtains
// are deliberately absent: curtain position changes always go through explicit
// toggles with a target state.
var switchPolicies = map[Category]switchPolicy{
	CategoryRemote: {off: RemoteOff, on: RemoteOn},
	CategorySwitch: {off: SwitchOff, on: SwitchOn},
	CategoryKnob:   {off: KnobOff, on: KnobOn},
}

// SwitchTarget computes the opposite state for a binary-flip request.
//
// The policy is selected by the id's band:
//   - remote/switch/knob: flip between the band's off and on values; a
//     settling current state returns ErrSettling.
//   - LED strip: off sentinel (100) flips to the requested scene (ledMode,
//     DefaultLEDScene when <= 0); any other state flips back to off.
//   - lighting: 0 flips to 1, anything else flips to 0.
//
// Parameters:
//   - id: The action to flip
//   - current: The action's current recorded state
//   - ledMode: Scene code for LED strip actions (<= 0 selects the default)
//
// Returns:
//   - int: The target state
//   - error: ErrSettling or ErrNoPolicy
func SwitchTarget(id ID, current, ledMode int) (int, error) {
	cat := Categorize(id)

	if p, ok := switchPolicies[cat]; ok {
		switch current {
		case p.off:
			return p.on, nil
		case p.on:
			return p.off, nil
		default:
			return 0, ErrSettling
		}
	}

	switch cat {
	case CategoryLEDStrip:
		if current == LEDStripOff {
			if ledMode <= 0 {
				ledMode = DefaultLEDScene
			}
			return ledMode, nil
		}
		return LEDStripOff, nil
	case CategoryLighting:
		if current == LightingOff {
			return LightingOn, nil
		}
		return LightingOff, nil
	default:
		return 0, ErrNoPolicy
	}
}
