package bus

import "sync"

// Wildcard is the reserved event name that receives every publish on a
// channel, wrapped in an Envelope.
const Wildcard = "*"

// Envelope wraps a value republished on the wildcard name.
type Envelope struct {
	// Source is the owner of the channel (an *entity.Entity, a
	// *device.Device, ...), set when the channel is created.
	Source any

	// Event is the name the value was originally published under.
	Event string

	// Value is the published value.
	Value any
}

// Listener receives published values.
type Listener func(value any)

// Subscription is a handle for a registered listener.
// Cancelling is idempotent.
type Subscription struct {
	channel *Channel
	event   string
	id      uint64
}

// Cancel removes the listener from the channel.
func (s *Subscription) Cancel() {
	if s == nil || s.channel == nil {
		return
	}
	s.channel.remove(s.event, s.id)
	s.channel = nil
}

type listenerEntry struct {
	id uint64
	fn Listener
}

// Channel is a named pub/sub channel with a wildcard re-publish.
type Channel struct {
	mu        sync.Mutex
	source    any
	nextID    uint64
	listeners map[string][]listenerEntry
}

// NewChannel creates a channel owned by source. The source is carried
// in every wildcard Envelope so subscribers can identify the origin.
func NewChannel(source any) *Channel {
	return &Channel{
		source:    source,
		listeners: make(map[string][]listenerEntry),
	}
}

// Subscribe registers a listener for the given event name.
// Use Wildcard to receive every event as an Envelope.
func (c *Channel) Subscribe(event string, fn Listener) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.listeners[event] = append(c.listeners[event], listenerEntry{id: id, fn: fn})

	return &Subscription{channel: c, event: event, id: id}
}

// Publish delivers value to all listeners of event, then delivers an
// Envelope to all wildcard listeners. It returns once every listener
// has run.
func (c *Channel) Publish(event string, value any) {
	c.deliver(event, value)
	if event != Wildcard {
		c.deliver(Wildcard, Envelope{Source: c.source, Event: event, Value: value})
	}
}

// deliver invokes listeners for one event name, in subscription order.
// The listener slice is snapshotted under the lock so listeners may
// subscribe or cancel without deadlocking.
func (c *Channel) deliver(event string, value any) {
	c.mu.Lock()
	entries := make([]listenerEntry, len(c.listeners[event]))
	copy(entries, c.listeners[event])
	c.mu.Unlock()

	for _, e := range entries {
		invoke(e.fn, value)
	}
}

// invoke runs a single listener, absorbing panics so one listener
// cannot stop delivery to the rest.
func invoke(fn Listener, value any) {
	defer func() {
		_ = recover()
	}()
	fn(value)
}

func (c *Channel) remove(event string, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := c.listeners[event]
	for i, e := range entries {
		if e.id == id {
			c.listeners[event] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of listeners for an event name.
// Used by tests and by devices when detaching entities.
func (c *Channel) ListenerCount(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners[event])
}
