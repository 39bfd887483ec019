package relay

import (
	"context"
	"sync"
)

// Releaser is the scheduler-side hook a Handle calls back into on
// release. It is a small interface rather than a raw back-pointer to the
// scheduler, so the handle never needs to know about Registry or
// Scheduler internals — the Go analogue of the spec's "weak
// back-reference... or a message channel" rewrite guidance for the
// original's Drop-based raw-pointer design.
type Releaser interface {
	ReturnRelay(ctx context.Context, url string, variant Variant)
}

// Handle is the opaque, caller-held token produced by a checkout. Its
// zero value is not usable; construct with NewHandle.
//
// Release is idempotent: a checkout produces exactly one handle, and a
// handle returns exactly once no matter how many times Release is
// called, guarded by sync.Once rather than relying on a destructor (Go
// has none).
type Handle struct {
	url      string
	variant  Variant
	releaser Releaser
	once     sync.Once
}

// NewHandle constructs a handle for a just-checked-out relay.
func NewHandle(url string, variant Variant, releaser Releaser) *Handle {
	return &Handle{url: url, variant: variant, releaser: releaser}
}

// URL returns the checked-out relay's URL.
func (h *Handle) URL() string { return h.url }

// Variant returns the variant the relay was checked out under.
func (h *Handle) Variant() Variant { return h.variant }

// Release returns the relay to the scheduler. Safe to call more than
// once or from multiple goroutines; only the first call has any effect.
func (h *Handle) Release(ctx context.Context) {
	h.once.Do(func() {
		h.releaser.ReturnRelay(ctx, h.url, h.variant)
	})
}
