// Package store is the persistence bridge: the external key/value store
// the scheduler loads from on init and flushes to on teardown.
package store

import (
	"time"

	"github.com/girino/relay-selector/relay"
)

// DefaultStoreName is the conventional store name, matching spec.md's
// "relay_selector_store" default.
const DefaultStoreName = "relay_selector_store"

// DurationPair is the (seconds, nanoseconds) wire representation of a
// time.Duration used in the persisted Record, matching spec.md's
// "durations in (seconds, nanoseconds) pair" schema.
type DurationPair struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int32 `json:"nanoseconds"`
}

// ToDuration converts a DurationPair back to a time.Duration.
func (p DurationPair) ToDuration() time.Duration {
	return time.Duration(p.Seconds)*time.Second + time.Duration(p.Nanoseconds)
}

// DurationPairOf converts a time.Duration into its wire representation.
func DurationPairOf(d time.Duration) DurationPair {
	return DurationPair{
		Seconds:     int64(d / time.Second),
		Nanoseconds: int32(d % time.Second),
	}
}

// Record is the persisted representation of one (variant, url) pair, as
// specified in spec.md §4.4.
type Record struct {
	URL                string         `json:"url"`
	VariantName        string         `json:"variant"`
	Requests           uint32         `json:"requests"`
	SuccessfulRequests uint32         `json:"successful_requests"`
	ResponseTimes      []DurationPair `json:"response_times"`
	TrustLevel         float32        `json:"trust_level"`
	VendorScore        float32        `json:"vendor_score"`
	Weight             float32        `json:"weight"`
}

// Variant parses the record's persisted variant name. Records are never
// written with an invalid variant name by this package, but a store
// shared with another process could contain anything, so this surfaces
// relay.ErrInvalidVariant rather than panicking.
func (r Record) Variant() (relay.Variant, error) {
	return relay.ParseVariant(r.VariantName)
}
