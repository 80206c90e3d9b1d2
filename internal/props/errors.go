package props

import "errors"

// Errors returned by property construction and lookup.
var (
	// ErrInvalidBinding indicates a sender was bound to no buses or more than two.
	ErrInvalidBinding = errors.New("sender must be bound to one or two buses")

	// ErrInvalidRange indicates a property's minimum exceeds its maximum.
	ErrInvalidRange = errors.New("property minimum exceeds maximum")

	// ErrInvalidStep indicates a negative step size.
	ErrInvalidStep = errors.New("property step must not be negative")

	// ErrInvalidName indicates an empty or malformed sender or property name.
	ErrInvalidName = errors.New("invalid property name")

	// ErrDuplicateProperty indicates a name already in use on a sender or group.
	ErrDuplicateProperty = errors.New("duplicate property")

	// ErrUnknownProperty indicates a lookup for a name no group member has.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrInvalidPreset indicates preset data is not a JSON document.
	ErrInvalidPreset = errors.New("invalid preset")
)
