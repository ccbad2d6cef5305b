package entity

import "sync"

// SensorConfig extends Config with sensor-specific attributes.
type SensorConfig struct {
	Config

	// Unit overrides the device class's default unit.
	Unit string

	// Value is the initial reading, if known.
	Value any
}

// Sensor is a read-only entity carrying a value and a unit.
type Sensor struct {
	*Entity

	mu    sync.Mutex
	value any
	unit  string
}

// NewSensor creates a sensor entity.
//
// An unrecognised device class falls back to custom. When no unit is
// configured, the device class's default unit applies (custom sensors
// have none).
func NewSensor(cfg SensorConfig) (*Sensor, error) {
	class := cfg.DeviceClass
	if _, ok := sensorClasses[class]; !ok {
		class = ClassCustom
	}
	cfg.Config.DeviceClass = class

	e, err := New(TypeSensor, cfg.Config)
	if err != nil {
		return nil, err
	}
	e.setDeviceClass(class)

	unit := cfg.Unit
	if unit == "" {
		unit = defaultUnits[class]
	}

	return &Sensor{Entity: e, value: cfg.Value, unit: unit}, nil
}

// Value returns the current reading.
func (s *Sensor) Value() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Unit returns the reading's unit.
func (s *Sensor) Unit() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unit
}

// SetValue records a new reading, optionally replacing the unit, and
// emits a value event.
func (s *Sensor) SetValue(value any, unit string) {
	s.mu.Lock()
	s.value = value
	if unit != "" {
		s.unit = unit
	}
	s.mu.Unlock()

	s.publish(EventValue, value)
}
