package action

// ID identifies a single controllable or reportable capability.
//
// Ids are partitioned into contiguous numeric bands by category. Output bands
// (things we command) sit below 5000; input bands (things modules report) are
// offset by +5000 from a conceptually similar output band and are never pushed
// to client applications as controllable actions.
type ID int

// Output action ids. Within a room no two modules may implement the same id,
// which lets clients address "the" lighting action of a room without knowing
// module topology.
const (
	Lighting1 ID = 50
	Lighting2 ID = 51
	Lighting3 ID = 52
	Lighting4 ID = 53
	Lighting5 ID = 54

	Curtains1 ID = 150
	Curtains2 ID = 151
	Curtains3 ID = 152
	Curtains4 ID = 153
	Curtains5 ID = 154

	Remote1  ID = 250
	Remote20 ID = 269

	Switch1 ID = 350
	Switch5 ID = 354

	Knob1 ID = 450
	Knob5 ID = 454

	// LED strip actions are handled differently from the other output bands:
	// toState carries a pre-programmed scene number rather than an on/off value.
	LEDStrip1  ID = 1000
	LEDStrip10 ID = 1009
)

// Input action ids. Reported by modules (or, for the admin band, by clients)
// and consumed exclusively by the input-rule engine.
const (
	Motion1 ID = 5050
	Motion5 ID = 5054

	Door1 ID = 5150
	Door5 ID = 5154

	Temp1 ID = 5250
	Temp5 ID = 5254

	// Admin ids are virtual: not backed by hardware, used for interactions
	// between clients and the coordinator (e.g. toggling speech recognition).
	Admin1 ID = 5350
	Admin5 ID = 5354
)

// StateUninitialized marks an action whose device has never reported a state.
const StateUninitialized = -999

// Category is the band an action id belongs to. It determines the
// state-transition policy applied by switch/toggle-all operations.
type Category string

// Category constants.
const (
	CategoryLighting Category = "lighting"
	CategoryCurtains Category = "curtains"
	CategoryRemote   Category = "remote"
	CategorySwitch   Category = "switch"
	CategoryKnob     Category = "knob"
	CategoryLEDStrip Category = "ledstrip"
	CategoryMotion   Category = "motion"
	CategoryDoor     Category = "door"
	CategoryClimate  Category = "climate"
	CategoryAdmin    Category = "admin"
	CategoryUnknown  Category = "unknown"
)

// band describes one contiguous id range and its category.
type band struct {
	lo, hi   ID
	category Category
	input    bool
}

// bands is the authoritative band table. Ordered, non-overlapping.
var bands = []band{
	{Lighting1, Lighting5, CategoryLighting, false},
	{Curtains1, Curtains5, CategoryCurtains, false},
	{Remote1, Remote20, CategoryRemote, false},
	{Switch1, Switch5, CategorySwitch, false},
	{Knob1, Knob5, CategoryKnob, false},
	{LEDStrip1, LEDStrip10, CategoryLEDStrip, false},
	{Motion1, Motion5, CategoryMotion, true},
	{Door1, Door5, CategoryDoor, true},
	{Temp1, Temp5, CategoryClimate, true},
	{Admin1, Admin5, CategoryAdmin, true},
}

// Categorize returns the category of an action id, or CategoryUnknown for ids
// outside every known band.
func Categorize(id ID) Category {
	for _, b := range bands {
		if id >= b.lo && id <= b.hi {
			return b.category
		}
	}
	return CategoryUnknown
}

// IsInput reports whether the id belongs to an input (reporting) band.
func IsInput(id ID) bool {
	for _, b := range bands {
		if id >= b.lo && id <= b.hi {
			return b.input
		}
	}
	return false
}

// IsKnown reports whether the id falls inside any defined band.
func IsKnown(id ID) bool {
	return Categorize(id) != CategoryUnknown
}
