package device

import "errors"

// Domain errors for the device package, checkable with errors.Is().
var (
	// ErrIDRequired is returned when constructing a device without an id.
	ErrIDRequired = errors.New("device: id required")

	// ErrInvalidState is returned when a connectivity state outside the
	// four-value enumeration is assigned. The prior state is retained.
	ErrInvalidState = errors.New("device: invalid state")

	// ErrEntityAttached is returned when adding an entity that already
	// belongs to a different device.
	ErrEntityAttached = errors.New("device: entity attached elsewhere")

	// ErrEntityExists is returned when adding a distinct entity whose id
	// collides with one the device already holds.
	ErrEntityExists = errors.New("device: entity id already held")

	// ErrEntityNotFound is returned when removing an entity the device
	// does not hold.
	ErrEntityNotFound = errors.New("device: entity not found")

	// ErrDeviceExists is returned when registering a device whose id is
	// already present in the registry.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrDeviceNotFound is returned when a device id is not in the
	// registry.
	ErrDeviceNotFound = errors.New("device: not found")
)
