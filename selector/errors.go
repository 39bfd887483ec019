// Package selector implements the relay registry and the weighted
// round-robin scheduler built on top of it: the adaptive core described
// in spec.md §4.3.
package selector

import "errors"

var (
	// ErrInvalidVariant is returned when a variant cannot be scheduled
	// directly — only Local, which has no independent list.
	ErrInvalidVariant = errors.New("selector: invalid variant")

	// ErrRankOutOfRange is returned when the requested rank is beyond
	// the end of the variant's relay list.
	ErrRankOutOfRange = errors.New("selector: rank out of range")

	// ErrNotAllowed is returned for a server-side checkout of a relay
	// absent from the configured allow-list.
	ErrNotAllowed = errors.New("selector: relay not on server allow list")
)
