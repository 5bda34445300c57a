// Package mqtt provides MQTT publishing for the KotakeeOS core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The core is publish-only on MQTT. It broadcasts action state changes,
// home status changes, and climate readings for external consumers such as
// dashboards and recorders. Commands arrive over the HTTP API, never MQTT.
//
//	KotakeeOS Core → MQTT Broker → Dashboards / Recorders
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Broadcast an action state change
//	topic := mqtt.Topics{}.ActionState(2, 50)
//	client.Publish(topic, []byte(`{"new_state":1}`), 1, true)
//
// For event fan-out the package offers EventPublisher, which implements
// home.EventSink and maps events to their topics.
package mqtt
