package entity

// Type identifies the kind of entity.
type Type string

// Entity types.
const (
	TypeButton      Type = "button"
	TypeSwitch      Type = "switch"
	TypeSensor      Type = "sensor"
	TypeLight       Type = "light"
	TypeCover       Type = "cover"
	TypeClimate     Type = "climate"
	TypeMediaPlayer Type = "media_player"
)

// AllTypes returns all valid entity types.
func AllTypes() []Type {
	return []Type{
		TypeButton, TypeSwitch, TypeSensor, TypeLight,
		TypeCover, TypeClimate, TypeMediaPlayer,
	}
}

// State is an entity state value.
type State string

// Base states shared by every entity type.
const (
	StateUnavailable State = "UNAVAILABLE"
	StateUnknown     State = "UNKNOWN"
)

// Type-specific states.
const (
	StateAvailable State = "AVAILABLE"
	StateOn        State = "ON"
	StateOff       State = "OFF"
	StateOpen      State = "OPEN"
	StateClosed    State = "CLOSED"
	StateOpening   State = "OPENING"
	StateClosing   State = "CLOSING"
	StateHeat      State = "HEAT"
	StateCool      State = "COOL"
	StateAuto      State = "AUTO"
	StatePlaying   State = "PLAYING"
	StatePaused    State = "PAUSED"
	StateStandby   State = "STANDBY"
)

// Feature is a capability tag an entity type declares it supports.
type Feature string

// Features.
const (
	FeaturePress       Feature = "press"
	FeatureOnOff       Feature = "on_off"
	FeatureToggle      Feature = "toggle"
	FeatureDim         Feature = "dim"
	FeatureOpen        Feature = "open"
	FeatureClose       Feature = "close"
	FeatureStop        Feature = "stop"
	FeaturePosition    Feature = "position"
	FeatureHeat        Feature = "heat"
	FeatureCool        Feature = "cool"
	FeatureTargetTemp  Feature = "target_temperature"
	FeatureCurrentTemp Feature = "current_temperature"
	FeatureVolume      Feature = "volume"
	FeatureMuteToggle  Feature = "mute_toggle"
	FeaturePlayPause   Feature = "play_pause"
)

// Attribute events published on the entity channel.
const (
	EventState         = "state"
	EventNameChange    = "name_change"
	EventAltNameChange = "alt_name_change"
	EventAreaChange    = "area_change"
)

// Type-specific events.
const (
	EventPressed = "pressed"
	EventTurnOn  = "on"
	EventTurnOff = "off"
	EventToggle  = "toggle"
	EventValue   = "value"
	EventUnit    = "unit"
)

// DeviceClass refines a type (for sensors: the physical quantity).
type DeviceClass string

// Sensor device classes.
const (
	ClassCustom      DeviceClass = "custom"
	ClassBattery     DeviceClass = "battery"
	ClassCurrent     DeviceClass = "current"
	ClassEnergy      DeviceClass = "energy"
	ClassHumidity    DeviceClass = "humidity"
	ClassPower       DeviceClass = "power"
	ClassTemperature DeviceClass = "temperature"
	ClassVoltage     DeviceClass = "voltage"
)

// typeSpec declares what a type's entities may do. The per-type state
// sets extend the shared base states.
type typeSpec struct {
	states   []State
	events   []string
	features []Feature
}

var typeSpecs = map[Type]typeSpec{
	TypeButton: {
		states:   []State{StateAvailable},
		events:   []string{EventPressed},
		features: []Feature{FeaturePress},
	},
	TypeSwitch: {
		states:   []State{StateOn, StateOff},
		events:   []string{EventTurnOn, EventTurnOff, EventToggle},
		features: []Feature{FeatureOnOff, FeatureToggle},
	},
	TypeSensor: {
		states: []State{StateOn},
		events: []string{EventValue, EventUnit},
	},
	TypeLight: {
		states:   []State{StateOn, StateOff},
		events:   []string{EventTurnOn, EventTurnOff, EventToggle},
		features: []Feature{FeatureOnOff, FeatureToggle, FeatureDim},
	},
	TypeCover: {
		states:   []State{StateOpen, StateClosed, StateOpening, StateClosing},
		features: []Feature{FeatureOpen, FeatureClose, FeatureStop, FeaturePosition},
	},
	TypeClimate: {
		states:   []State{StateOff, StateHeat, StateCool, StateAuto},
		features: []Feature{FeatureOnOff, FeatureHeat, FeatureCool, FeatureCurrentTemp, FeatureTargetTemp},
	},
	TypeMediaPlayer: {
		states:   []State{StateOn, StateOff, StatePlaying, StatePaused, StateStandby},
		features: []Feature{FeatureOnOff, FeatureVolume, FeatureMuteToggle, FeaturePlayPause},
	},
}

// defaultUnits maps sensor device classes to their default units.
var defaultUnits = map[DeviceClass]string{
	ClassCustom:      "",
	ClassBattery:     "%",
	ClassCurrent:     "A",
	ClassEnergy:      "kWh",
	ClassHumidity:    "%",
	ClassPower:       "W",
	ClassTemperature: "°C",
	ClassVoltage:     "V",
}

// sensorClasses is the resolved set of valid sensor device classes.
var sensorClasses = map[DeviceClass]struct{}{
	ClassCustom:      {},
	ClassBattery:     {},
	ClassCurrent:     {},
	ClassEnergy:      {},
	ClassHumidity:    {},
	ClassPower:       {},
	ClassTemperature: {},
	ClassVoltage:     {},
}

// ValidType reports whether t names a known entity type.
func ValidType(t Type) bool {
	_, ok := typeSpecs[t]
	return ok
}

// DefaultUnit returns the default unit for a sensor device class, or
// "" when the class has none.
func DefaultUnit(class DeviceClass) string {
	return defaultUnits[class]
}
