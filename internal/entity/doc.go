// Package entity provides the generic entity model for remotegate.
//
// An Entity is the smallest controllable or observable unit exposed to
// the remote hub: one switch, one button, one sensor reading. Each
// entity is a small state machine whose allowed states, emitted events,
// and declared features are fixed by its Type at construction time.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────┐
//	│                         Entity                             │
//	│                                                            │
//	│  ┌──────────────┐   ┌──────────────┐   ┌───────────────┐   │
//	│  │    Entity    │   │  Type specs  │   │   Variants    │   │
//	│  │ (entity.go)  │──▶│  (types.go)  │   │ button.go ... │   │
//	│  │              │   │              │   │               │   │
//	│  │ • SetState   │   │ • state sets │   │ • Press       │   │
//	│  │ • attributes │   │ • event sets │   │ • TurnOn/Off  │   │
//	│  │ • Format     │   │ • features   │   │ • SetValue    │   │
//	│  └──────┬───────┘   └──────────────┘   └───────────────┘   │
//	│         │ publishes on bus.Channel                         │
//	└─────────│──────────────────────────────────────────────────┘
//	          ▼
//	   owning Device (re-publishes tagged with its id)
//
// State assignments are validated against the entity's resolved state
// set; an invalid assignment fails with ErrInvalidState and leaves the
// entity unchanged. Every successful mutation publishes exactly one
// attribute event on the entity's channel.
//
// Variants (Button, Switch, Sensor) are thin wrappers that only ever
// mutate through the base contract. The remaining types (light, cover,
// climate, media_player) carry their state and feature enumerations
// but no variant behaviour yet.
package entity
