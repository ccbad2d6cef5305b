package entity

import "errors"

// Domain errors for the entity package, checkable with errors.Is().
var (
	// ErrIDRequired is returned when constructing an entity without an id.
	ErrIDRequired = errors.New("entity: id required")

	// ErrInvalidType is returned when the entity type is not recognised.
	ErrInvalidType = errors.New("entity: invalid type")

	// ErrInvalidState is returned when a state assignment is outside the
	// entity's allowed-state set. The prior state is retained.
	ErrInvalidState = errors.New("entity: invalid state")

	// ErrInvalidAltNames is returned when the alt-names argument is not a
	// language-to-name mapping.
	ErrInvalidAltNames = errors.New("entity: alt names must map language codes to names")

	// ErrAlreadyAttached is returned when attaching an entity that is
	// already attached to a different device.
	ErrAlreadyAttached = errors.New("entity: already attached to a device")
)
