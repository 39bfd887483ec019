// Package weight implements the pure, side-effect-free function that maps
// a relay's raw statistics to an (initial, current) weight pair, plus the
// comparator used to keep a variant's relay list ranked best-first.
//
// This package is deliberately stdlib-only (math, sort): it is a pure
// numeric kernel and a slice sort, and nothing in the retrieval pack
// offers a scoring or ranking library that fits better than the standard
// library for either concern (see DESIGN.md).
package weight

import (
	"math"
	"sort"
	"time"
)

// ConnectionWeight is added to the initial weight, once per active
// connection, to produce the current weight.
const ConnectionWeight float32 = 0.1

// Default is the weight assigned to a relay on first insert, before any
// trust/vendor scores have been fetched.
const Default float32 = 1.0

// Inputs bundles the raw per-relay signals the kernel consumes.
type Inputs struct {
	// ResponseTimes is sorted in place to compute the median; callers
	// that need to preserve insertion order should pass a copy.
	ResponseTimes      []time.Duration
	SuccessfulRequests uint32
	Requests           uint32
	TrustLevel         float32
	VendorScore        float32
	ActiveConnections  uint8
}

// Compute derives the (initial, current) weight pair for one relay.
//
// Per spec: success_rate is a real-valued ratio (successful_requests /
// requests as floats), not the original implementation's
// integer-truncating division — that collapsed to 0 or 1 was a latent
// bug the spec explicitly corrects rather than preserves.
func Compute(in Inputs) (initial, current float32) {
	medianMs := medianMillis(in.ResponseTimes)

	responseTimeWeight := float32(-math.Log10(float64(medianMs))) + 1.0

	var successRate float32
	if in.Requests != 0 {
		successRate = float32(in.SuccessfulRequests) / float32(in.Requests)
	}

	initial = responseTimeWeight*successRate + in.TrustLevel + in.VendorScore
	current = initial + float32(in.ActiveConnections)*ConnectionWeight
	return initial, current
}

// medianMillis sorts times ascending in place and returns the median, in
// milliseconds, treating an empty sample log as a 1.0ms median (so that
// -log10(1)+1 == 1.0, i.e. response time stops contributing noise).
func medianMillis(times []time.Duration) float32 {
	if len(times) == 0 {
		return 1.0
	}

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	n := len(times)
	if n%2 == 1 {
		return float32(times[n/2].Milliseconds())
	}
	a := float32(times[n/2-1].Milliseconds())
	b := float32(times[n/2].Milliseconds())
	return (a + b) / 2
}

// SortDescending reorders urls in place, best relay first: descending by
// current[url], ties broken by ascending URL string. Every url must have
// an entry in current; a missing entry is treated as the zero weight so
// the sort never panics on a partially-populated map.
func SortDescending(urls []string, current map[string]float32) {
	sort.SliceStable(urls, func(i, j int) bool {
		wi, wj := current[urls[i]], current[urls[j]]
		if wi != wj {
			return wi > wj
		}
		return urls[i] < urls[j]
	})
}
