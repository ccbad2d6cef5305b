// Package device provides the device model and registry for remotegate.
//
// A Device is a physical or logical endpoint grouping one or more
// entities, with its own connectivity state machine (CONNECTED,
// CONNECTING, DISCONNECTED, ERROR). The Registry is the integration
// server's catalogue of devices; it is an explicit, owned object with
// no ambient module state.
//
// # Event propagation
//
// Every device owns a bus.Channel. Its own state changes are published
// as StateEvent; events from attached entities are re-published as
// EntityEvent tagged with the device id. The server therefore observes
// the whole entity tree of a device through one wildcard subscription:
//
//	Entity channel ──▶ Device channel ──▶ Server fan-out
//
// Wildcard payloads are the tagged union {StateEvent, EntityEvent} so
// consumers can match exhaustively.
//
// Thread Safety: all Device and Registry methods are safe for
// concurrent use.
package device
