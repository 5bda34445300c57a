package mqtt

import "fmt"

// Topic structure constants.
const (
	// TopicPrefix is the root namespace for all KotakeeOS topics.
	TopicPrefix = "kotakee"
)

// Topics provides type-safe topic construction for the KotakeeOS namespace.
//
// Topic structure:
//
//	kotakee/system/status                       - Core online/offline (LWT)
//	kotakee/home/status                         - Home status changes (rules, kill switches, weather)
//	kotakee/home/{roomID}/action/{actionID}     - Action state change events
//	kotakee/home/{roomID}/climate/{actionID}    - Climate sensor readings
//
// Usage:
//
//	topics := mqtt.Topics{}
//	topic := topics.ActionState(2, 50)
//	// Returns: "kotakee/home/2/action/50"
type Topics struct{}

// SystemStatus returns the topic for Core online/offline status.
// This is also used for Last Will and Testament (LWT).
//
// Example: kotakee/system/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// HomeStatus returns the topic for home-level status change events.
// Published when kill switches flip, input rules change, or weather refreshes.
//
// Example: kotakee/home/status
func (Topics) HomeStatus() string {
	return TopicPrefix + "/home/status"
}

// ActionState returns the topic for a specific action's state change events.
//
// Parameters:
//   - roomID: Room identifier (e.g., 2 for bedroom)
//   - actionID: Action identifier (e.g., 50 for the first lighting action)
//
// Example: kotakee/home/2/action/50
func (Topics) ActionState(roomID, actionID int) string {
	return fmt.Sprintf("%s/home/%d/action/%d", TopicPrefix, roomID, actionID)
}

// Climate returns the topic for a room's climate sensor readings.
//
// Parameters:
//   - roomID: Room identifier
//   - actionID: Sensor input identifier (e.g., 5250 for the first temp input)
//
// Example: kotakee/home/2/climate/5250
func (Topics) Climate(roomID, actionID int) string {
	return fmt.Sprintf("%s/home/%d/climate/%d", TopicPrefix, roomID, actionID)
}

// AllActionStates returns a wildcard pattern matching all action state topics.
// Intended for external subscribers (dashboards, recorders), not Core itself.
//
// Example: kotakee/home/+/action/+
func (Topics) AllActionStates() string {
	return TopicPrefix + "/home/+/action/+"
}

// AllClimate returns a wildcard pattern matching all climate topics.
//
// Example: kotakee/home/+/climate/+
func (Topics) AllClimate() string {
	return TopicPrefix + "/home/+/climate/+"
}
