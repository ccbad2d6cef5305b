package mqtt

import "fmt"

// Topic prefixes for the remotegate state mirror.
//
// All topics live under a single root so broker ACLs can grant
// consumers read access with one pattern.
const (
	// TopicPrefixState is the base for entity state topics.
	TopicPrefixState = "remotegate/state"

	// TopicPrefixDevice is the base for device status topics.
	TopicPrefixDevice = "remotegate/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "remotegate/system"
)

// Topics provides builders for remotegate MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.EntityState("hub-1", "light-hall")
//	// Returns: "remotegate/state/hub-1/light-hall"
type Topics struct{}

// EntityState returns the topic for entity state and attribute updates.
//
// Example: remotegate/state/hub-1/light-hall
func (Topics) EntityState(deviceID, entityID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixState, deviceID, entityID)
}

// DeviceState returns the topic for device connectivity status.
//
// Example: remotegate/device/hub-1/state
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixDevice, deviceID)
}

// SystemStatus returns the gateway status topic, used for the online
// announcement and the Last Will and Testament.
//
// Example: remotegate/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
