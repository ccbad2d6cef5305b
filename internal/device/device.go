package device

import (
	"fmt"
	"sync"

	"github.com/mweston/remotegate/internal/bus"
	"github.com/mweston/remotegate/internal/entity"
)

// State is a device connectivity state.
type State string

// Connectivity states.
const (
	StateConnected    State = "CONNECTED"
	StateConnecting   State = "CONNECTING"
	StateDisconnected State = "DISCONNECTED"
	StateError        State = "ERROR"
)

// validStates is the resolved connectivity enumeration.
var validStates = map[State]struct{}{
	StateConnected:    {},
	StateConnecting:   {},
	StateDisconnected: {},
	StateError:        {},
}

// AllStates returns all valid connectivity states.
func AllStates() []State {
	return []State{StateConnected, StateConnecting, StateDisconnected, StateError}
}

// Event names published on the device channel.
const (
	EventStateChange = "state_change"
	EventEntityEvent = "entity_event"
)

// StateEvent reports a device connectivity-state change.
type StateEvent struct {
	Device *Device
	State  State
}

// EntityEvent is an entity event re-published by the owning device,
// tagged with the device id so the server can attribute it.
type EntityEvent struct {
	DeviceID string
	Entity   *entity.Entity
	Event    string
	Value    any
}

// Device groups entities under one connectivity state machine.
type Device struct {
	mu sync.Mutex

	id       string
	state    State
	entities map[string]*entity.Entity

	// entitySubs holds the wildcard subscription on each attached
	// entity, cancelled again at detach time.
	entitySubs map[string]*bus.Subscription

	channel *bus.Channel
}

// New creates a device. Devices start CONNECTED: a device is normally
// registered once its upstream link is established.
func New(id string) (*Device, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	d := &Device{
		id:         id,
		state:      StateConnected,
		entities:   make(map[string]*entity.Entity),
		entitySubs: make(map[string]*bus.Subscription),
	}
	d.channel = bus.NewChannel(d)
	return d, nil
}

// ID returns the device's immutable identifier.
func (d *Device) ID() string { return d.id }

// Events returns the device's event channel.
func (d *Device) Events() *bus.Channel { return d.channel }

// State returns the current connectivity state.
func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// SetState transitions the device's connectivity state.
//
// A value outside the four-state enumeration fails with
// ErrInvalidState and leaves the state unchanged. On success exactly
// one state_change event is published.
func (d *Device) SetState(state State) error {
	d.mu.Lock()
	if _, ok := validStates[state]; !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrInvalidState, state)
	}
	d.state = state
	d.mu.Unlock()

	d.channel.Publish(EventStateChange, StateEvent{Device: d, State: state})
	return nil
}

// AddEntity attaches an entity to the device.
//
// The entity's device back-reference is set, and the device subscribes
// to the entity's wildcard channel so entity events bubble up through
// the device channel. An entity attached to another device fails with
// ErrEntityAttached; a distinct entity colliding with an id the device
// already holds fails with ErrEntityExists before its back-reference
// is touched. Re-adding an entity this device already holds is a no-op.
func (d *Device) AddEntity(e *entity.Entity) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if held, ok := d.entities[e.ID()]; ok {
		if held == e {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrEntityExists, e.ID())
	}

	if err := e.Attach(d.id); err != nil {
		return fmt.Errorf("%w: %s", ErrEntityAttached, e.ID())
	}

	d.entities[e.ID()] = e
	d.entitySubs[e.ID()] = e.Events().Subscribe(bus.Wildcard, d.bubbleEntityEvent)
	return nil
}

// RemoveEntity detaches an entity, clearing its back-reference and
// cancelling the bubbled-event subscription.
func (d *Device) RemoveEntity(e *entity.Entity) error {
	d.mu.Lock()
	if _, ok := d.entities[e.ID()]; !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrEntityNotFound, e.ID())
	}
	sub := d.entitySubs[e.ID()]
	delete(d.entities, e.ID())
	delete(d.entitySubs, e.ID())
	d.mu.Unlock()

	sub.Cancel()
	e.Detach()
	return nil
}

// Entity returns an attached entity by id.
func (d *Device) Entity(id string) (*entity.Entity, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entities[id]
	return e, ok
}

// GetEntities returns the device's entities of the given type, or all
// entities when typeFilter is empty.
func (d *Device) GetEntities(typeFilter entity.Type) []*entity.Entity {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]*entity.Entity, 0, len(d.entities))
	for _, e := range d.entities {
		if typeFilter == "" || e.Type() == typeFilter {
			out = append(out, e)
		}
	}
	return out
}

// EntityCount returns the number of attached entities.
func (d *Device) EntityCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entities)
}

// bubbleEntityEvent re-publishes an entity event on the device channel
// tagged with the device id.
func (d *Device) bubbleEntityEvent(v any) {
	env, ok := v.(bus.Envelope)
	if !ok {
		return
	}
	src, ok := env.Source.(*entity.Entity)
	if !ok {
		return
	}
	d.channel.Publish(EventEntityEvent, EntityEvent{
		DeviceID: d.id,
		Entity:   src,
		Event:    env.Event,
		Value:    env.Value,
	})
}
