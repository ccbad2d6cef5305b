// Package api provides the integration protocol server for remotegate.
//
// It exposes the device/entity registry to a remote control hub over a
// persistent WebSocket connection carrying a small framed message
// protocol, plus a read-only REST mirror for local tooling.
//
// # Architecture
//
//	                   ┌──────────────────────────┐
//	 Remote Hub ──ws──▶│ Session   Session  ...   │
//	                   │    │         │           │
//	                   │    ▼         ▼           │
//	                   │  ProtocolRouter (frames) │
//	                   │    │                     │
//	                   │    ▼                     │
//	                   │  IntegrationServer ──────┼──▶ MQTT mirror
//	                   │    │            ▲        │    InfluxDB sink
//	                   │    ▼            │        │
//	                   │  Registry ── device bus  │
//	                   └──────────────────────────┘
//
// Every frame is one of three kinds: event (server → client, fire and
// forget), req (client → server, carries a correlation id), and resp
// (answers a req, echoes the correlation id and an HTTP-style code).
//
// # Session lifecycle
//
// A connection is pre-authenticated when its upgrade request carries a
// recognised credential (API-KEY header or bearer token). Otherwise the
// server sends an auth_required event and accepts nothing but an auth
// request until a valid token arrives. A global heartbeat pings every
// session on a fixed interval; a session that misses a full interval
// without a pong is evicted.
//
// The server follows the same lifecycle pattern as the infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Stop()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
