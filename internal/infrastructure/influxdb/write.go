package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorValue writes a single sensor reading to InfluxDB.
//
// This is the primary method for recording entity telemetry data.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: The device that owns the entity (e.g., "hub-1")
//   - entityID: The entity identifier (e.g., "sensor-living-temp")
//   - deviceClass: The sensor class (e.g., "temperature", "power", "custom")
//   - value: The numeric value to record
//   - unit: The unit of measure (e.g., "°C", "W")
//
// Example:
//
//	client.WriteSensorValue("hub-1", "sensor-living-temp", "temperature", 21.5, "°C")
func (c *Client) WriteSensorValue(deviceID, entityID, deviceClass string, value float64, unit string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_values",
		map[string]string{
			"device_id":    deviceID,
			"entity_id":    entityID,
			"device_class": deviceClass,
			"unit":         unit,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceStatus records a device connectivity transition.
//
// Stored as a discrete series so availability gaps can be charted
// alongside sensor data.
//
// Parameters:
//   - deviceID: Device identifier
//   - state: The new connectivity state (e.g., "CONNECTED", "ERROR")
func (c *Client) WriteDeviceStatus(deviceID string, state string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_status",
		map[string]string{
			"device_id": deviceID,
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
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("session_stats",
//	    map[string]string{"gateway": "remotegate-01"},
//	    map[string]interface{}{"open_sessions": 3})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
