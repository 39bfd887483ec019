package relay

import "errors"

var (
	// ErrInvalidVariant is returned when a variant string does not match
	// one of the known variants.
	ErrInvalidVariant = errors.New("relay: invalid variant")

	// ErrInvalidDuration is returned when a response time sample is
	// negative or not finite.
	ErrInvalidDuration = errors.New("relay: invalid response duration")

	// ErrLimitExceeded is returned when a relay's active-connection
	// counter would overflow its 8-bit range.
	ErrLimitExceeded = errors.New("relay: active connection limit exceeded")
)
