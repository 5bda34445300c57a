package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kotakee/kotakee-core/internal/action"
)

// WriteClimate writes a parsed climate reading to InfluxDB.
//
// This is the primary method for recording sensor telemetry. It implements
// home.TelemetryWriter, so a connected client can be handed straight to the
// home aggregate. The write is non-blocking; data is batched and sent
// asynchronously.
//
// Parameters:
//   - roomID: Room the sensor belongs to
//   - id: Input action identifier of the sensor (e.g., 5250)
//   - reading: Parsed temperature/humidity reading
//
// Example:
//
//	client.WriteClimate(2, 5250, reading)
func (c *Client) WriteClimate(roomID int, id action.ID, reading action.Reading) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"climate",
		map[string]string{
			"room_id":   strconv.Itoa(roomID),
			"action_id": strconv.Itoa(int(id)),
		},
		map[string]interface{}{
			"temp_c":   reading.Celsius,
			"temp_f":   reading.Fahrenheit(),
			"humidity": reading.Humidity,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteActionState writes an action state transition as a time-series point.
//
// Useful for long-term occupancy and usage analysis alongside the SQLite
// action history, which serves the short-term API queries.
//
// Parameters:
//   - roomID: Room the action belongs to
//   - id: Action identifier
//   - state: The new state value
func (c *Client) WriteActionState(roomID int, id action.ID, state int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"action_state",
		map[string]string{
			"room_id":   strconv.Itoa(roomID),
			"action_id": strconv.Itoa(int(id)),
		},
		map[string]interface{}{
			"state": state,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
