package notify

import "errors"

// Sentinel kinds for hub errors.
var (
	// ErrDeliveryFailure wraps a failed subscriber callback.
	ErrDeliveryFailure = errors.New("notification delivery failed")
	// ErrDuplicateEvent is returned when the event key was already delivered to the user.
	ErrDuplicateEvent = errors.New("duplicate notification event")
	// ErrInvalidUser is returned for an empty user id.
	ErrInvalidUser = errors.New("invalid user id")
)
