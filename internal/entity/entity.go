package entity

import (
	"fmt"
	"sync"

	"github.com/mweston/remotegate/internal/bus"
)

// Config carries the optional attributes for a new entity.
type Config struct {
	ID          string
	Name        string
	Area        string
	DeviceClass DeviceClass
	State       State
	AltNames    map[string]string
}

// Entity is a generic capability-bearing state machine.
//
// The allowed-state, event, and feature sets are resolved from the
// entity's type at construction and never change afterwards. All
// mutations go through the setters, which publish exactly one
// attribute event each on the entity's channel.
//
// Thread Safety: all methods are safe for concurrent use. Events are
// published outside the entity lock, on the mutating goroutine.
type Entity struct {
	mu sync.Mutex

	id          string
	typ         Type
	deviceClass DeviceClass
	name        string
	altNames    map[string]string
	area        string
	deviceID    string
	state       State

	// Resolved at construction from the type spec.
	states   map[State]struct{}
	events   []string
	features []Feature

	channel *bus.Channel
}

// New creates an entity of the given type.
//
// The initial state defaults to UNKNOWN; a configured state outside the
// type's allowed set also falls back to UNKNOWN rather than failing,
// so a stale hardware reading cannot prevent construction.
func New(typ Type, cfg Config) (*Entity, error) {
	if cfg.ID == "" {
		return nil, ErrIDRequired
	}
	spec, ok := typeSpecs[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}

	states := make(map[State]struct{}, len(spec.states)+2)
	states[StateUnavailable] = struct{}{}
	states[StateUnknown] = struct{}{}
	for _, s := range spec.states {
		states[s] = struct{}{}
	}

	state := cfg.State
	if _, ok := states[state]; !ok {
		state = StateUnknown
	}

	e := &Entity{
		id:          cfg.ID,
		typ:         typ,
		deviceClass: cfg.DeviceClass,
		name:        cfg.Name,
		area:        cfg.Area,
		state:       state,
		states:      states,
		events:      spec.events,
		features:    spec.features,
	}
	if len(cfg.AltNames) > 0 {
		e.altNames = cloneNames(cfg.AltNames)
	}
	e.channel = bus.NewChannel(e)
	return e, nil
}

// ID returns the entity's immutable identifier.
func (e *Entity) ID() string { return e.id }

// Type returns the entity's type.
func (e *Entity) Type() Type { return e.typ }

// Events returns the entity's event channel.
func (e *Entity) Events() *bus.Channel { return e.channel }

// Features returns the feature set declared by the entity's type.
func (e *Entity) Features() []Feature {
	out := make([]Feature, len(e.features))
	copy(out, e.features)
	return out
}

// DeviceClass returns the entity's device class, if any.
func (e *Entity) DeviceClass() DeviceClass {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deviceClass
}

// DeviceID returns the owning device id, or "" when unattached.
func (e *Entity) DeviceID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deviceID
}

// State returns the entity's current state.
func (e *Entity) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Name returns the entity's primary display name.
func (e *Entity) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

// Area returns the entity's location tag, if any.
func (e *Entity) Area() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.area
}

// AltNames returns a copy of the localised name map.
func (e *Entity) AltNames() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneNames(e.altNames)
}

// SetState transitions the entity to the given state.
//
// It fails with ErrInvalidState, leaving the state unchanged, when the
// state is outside the entity's allowed set. On success exactly one
// state event is published with the new state as value.
func (e *Entity) SetState(state State) error {
	e.mu.Lock()
	if _, ok := e.states[state]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q not allowed for %s", ErrInvalidState, state, e.typ)
	}
	e.state = state
	e.mu.Unlock()

	e.channel.Publish(EventState, state)
	return nil
}

// SetName replaces the primary display name and publishes a
// name_change event.
func (e *Entity) SetName(name string) {
	e.mu.Lock()
	e.name = name
	e.mu.Unlock()

	e.channel.Publish(EventNameChange, name)
}

// SetArea replaces the location tag and publishes an area_change event.
func (e *Entity) SetArea(area string) {
	e.mu.Lock()
	e.area = area
	e.mu.Unlock()

	e.channel.Publish(EventAreaChange, area)
}

// SetAltNames replaces the localised name map.
//
// Keys are language codes; an empty key fails the whole assignment
// with ErrInvalidAltNames and leaves the prior map in place.
func (e *Entity) SetAltNames(names map[string]string) error {
	for lang := range names {
		if lang == "" {
			return ErrInvalidAltNames
		}
	}

	e.mu.Lock()
	e.altNames = cloneNames(names)
	e.mu.Unlock()

	e.channel.Publish(EventAltNameChange, cloneNames(names))
	return nil
}

// Attach records the owning device. An entity belongs to at most one
// device at a time; attaching an entity that already belongs elsewhere
// fails with ErrAlreadyAttached. Re-attaching to the same device is a
// no-op.
func (e *Entity) Attach(deviceID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deviceID != "" && e.deviceID != deviceID {
		return fmt.Errorf("%w: %s belongs to %s", ErrAlreadyAttached, e.id, e.deviceID)
	}
	e.deviceID = deviceID
	return nil
}

// Detach clears the owning-device back-reference.
func (e *Entity) Detach() {
	e.mu.Lock()
	e.deviceID = ""
	e.mu.Unlock()
}

// publish emits a type-specific event through the base contract.
// Variant operations use this rather than touching state directly.
func (e *Entity) publish(event string, value any) {
	e.channel.Publish(event, value)
}

// setDeviceClass adjusts the refinement tag during variant
// construction, before the entity is visible to other goroutines.
func (e *Entity) setDeviceClass(class DeviceClass) {
	e.deviceClass = class
}

func cloneNames(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
