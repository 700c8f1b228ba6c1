package session

import "errors"

var (
	// ErrNilTemplate is returned by Start without a template.
	ErrNilTemplate = errors.New("nil template")

	// ErrInlineRange is returned when an inline template does not fit the
	// document at the start offset.
	ErrInlineRange = errors.New("inline template outside document")
)
