package services

import "errors"

var (
	// ErrInvalidStatus is returned when a status update names a value
	// outside the six-state lifecycle enum.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidState is returned when satisfaction is toggled on an
	// issue that is not Resolved or Verified.
	ErrInvalidState = errors.New("can only mark satisfaction for resolved issues")
)
