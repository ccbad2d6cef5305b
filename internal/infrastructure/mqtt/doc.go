// Package mqtt provides MQTT client connectivity for remotegate.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The gateway optionally mirrors entity and device state onto MQTT so
// that dashboards and other local consumers can observe the same state
// the remote hub sees, without opening their own integration session.
//
//	Integration Server → MQTT Broker → Local Consumers
//
// The mirror is one-directional. Commands never arrive over MQTT; the
// WebSocket protocol is the only control surface.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.EntityState("hub-1", "light-hall")
//	client.PublishRetained(topic, []byte(`{"state":"ON"}`))
package mqtt
