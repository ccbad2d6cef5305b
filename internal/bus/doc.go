// Package bus provides the in-process event channel used by entities,
// devices, and the integration server.
//
// A Channel delivers published values synchronously to listeners
// registered for a named event. Every publish is additionally delivered
// on the reserved wildcard name ("*"), wrapped in an Envelope that
// records the originating source and event name. This is what lets a
// device observe everything an entity does, and the server observe
// everything a device does, with a single subscription each.
//
// Delivery guarantees:
//   - Listeners for the same event name run in subscription order.
//   - A panicking listener does not stop delivery to later listeners.
//   - Publish returns only after all listeners have run.
//
// Thread Safety: all Channel methods are safe for concurrent use.
// Listeners themselves run on the publishing goroutine.
package bus
