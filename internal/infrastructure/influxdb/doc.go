// Package influxdb provides InfluxDB connectivity for the KotakeeOS core.
//
// It wraps the official influxdb-client-go v2 library with coordinator
// patterns for connection management, telemetry writing, and health
// monitoring.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Climate sensor readings (temperature, humidity)
//   - Action state transitions for long-term usage analysis
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "kotakee",
//	    Bucket: "telemetry",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record a sensor reading
//	client.WriteClimate(2, 5250, reading)
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
