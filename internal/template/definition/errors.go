package definition

import "errors"

var (
	// ErrReservedName is returned when a variable uses a reserved segment name.
	ErrReservedName = errors.New("reserved variable name")

	// ErrInvalidTemplate is returned when a template record fails validation.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrNotFound is returned by a Repository for an unknown key.
	ErrNotFound = errors.New("template not found")
)
