package manifest

import "errors"

var (
	// ErrInvalidUnit marks a definition file that failed to decode or validate.
	ErrInvalidUnit = errors.New("invalid agent definition")

	// ErrIncompatibleVersion marks a definition whose requires constraint
	// excludes the running thinky version.
	ErrIncompatibleVersion = errors.New("incompatible thinky version")
)
