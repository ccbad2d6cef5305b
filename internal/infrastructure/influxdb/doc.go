// Package influxdb provides InfluxDB connectivity for remotegate.
//
// It wraps the official influxdb-client-go v2 library with gateway-specific
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Numeric sensor values (temperature, power, humidity, ...)
//   - Device connectivity transitions
//
// The sink is optional and observational. Nothing in the integration
// protocol depends on it; a failed write never affects a session.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "remotegate",
//	    Bucket: "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Write sensor readings
//	client.WriteSensorValue("hub-1", "sensor-temp", "temperature", 21.5, "°C")
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead for high-frequency telemetry data.
package influxdb
