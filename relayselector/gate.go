// Package relayselector is the public surface: a process-wide lifecycle
// gate wrapping a selector.Scheduler, exposing the checkout/return/record
// operations as package-level functions over one lazily-initialized
// default instance, plus a constructor for hosts that want an
// independent instance instead of the package-level singleton.
package relayselector

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/girino/relay-selector/configbridge"
	"github.com/girino/relay-selector/relay"
	"github.com/girino/relay-selector/selector"
	"github.com/girino/relay-selector/store"
)

// ErrNotInitialized is returned by any operation invoked on a Gate
// before Ensure has successfully completed.
var ErrNotInitialized = errors.New("relayselector: not initialized")

// Gate is a concurrency-safe, exactly-once initializer around a
// selector.Scheduler. The zero value is not usable; construct with
// NewGate.
//
// Go has no single-threaded cooperative runtime to lean on, so the
// spec's "initialize exactly once even under concurrent callers" rule
// is implemented with one sync.Mutex: Ensure checks the initialized flag
// under it and, if the load has not run yet, performs the (possibly
// slow) load while still holding it.
type Gate struct {
	mu          sync.Mutex
	scheduler   *selector.Scheduler
	initialized bool
	initErr     error

	cfg selector.Config
}

// NewGate constructs an uninitialized Gate over the given persistence
// bridge. SetConfigProvider must be called before Ensure: Ensure fails
// with configbridge.ErrNoProvider if no configuration provider has been
// registered yet.
func NewGate(persist store.Store) *Gate {
	return &Gate{
		cfg: selector.Config{
			Store:     persist,
			StoreName: store.DefaultStoreName,
		},
	}
}

// SetConfigProvider attaches the configuration bridge a Gate consults
// for trust levels, vendor scores, and the server allow-list. Must be
// called before the first Ensure; it is a no-op once initialization has
// already run.
func (g *Gate) SetConfigProvider(p configbridge.Provider, ttl time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.initialized {
		return
	}
	g.cfg.ConfigProvider = p
	g.cfg.ConfigTTL = ttl
}

// Ensure performs the one-time load (persisted records, then cold-start
// default seeding) if it has not already run, returning the cached
// result to every caller — concurrent or sequential — thereafter.
//
// Per spec.md §4.6 step 5 / §7, a configuration provider must already be
// registered via SetConfigProvider; an Ensure with none set fails loudly
// with configbridge.ErrNoProvider rather than silently loading with a
// degrade-to-default posture.
func (g *Gate) Ensure(ctx context.Context) error {
	g.mu.Lock()
	if g.initialized {
		defer g.mu.Unlock()
		return g.initErr
	}

	if g.cfg.ConfigProvider == nil {
		// Not cached as g.initialized: a host that calls SetConfigProvider
		// after a failed Ensure must still be able to retry successfully.
		g.mu.Unlock()
		return configbridge.ErrNoProvider
	}

	// The load runs with the lock held, so concurrent callers wait here
	// and then take the fast path above instead of loading again.
	defer g.mu.Unlock()
	s := selector.New(g.cfg)
	err := s.Init(ctx)
	g.scheduler = s
	g.initErr = err
	g.initialized = true
	return g.initErr
}

func (g *Gate) ready() (*selector.Scheduler, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.initialized {
		return nil, ErrNotInitialized
	}
	if g.initErr != nil {
		return nil, g.initErr
	}
	return g.scheduler, nil
}

// AddRelay registers url under variant, fetching its trust level and
// vendor score from the configuration bridge.
func (g *Gate) AddRelay(ctx context.Context, url string, variant relay.Variant) error {
	s, err := g.ready()
	if err != nil {
		return err
	}
	return s.Insert(ctx, url, variant)
}

// RecordResponseTime records a response-time sample for url under
// variant.
func (g *Gate) RecordResponseTime(ctx context.Context, url string, variant relay.Variant, d time.Duration) error {
	s, err := g.ready()
	if err != nil {
		return err
	}
	return s.UpdateWeightsWithResponseTime(ctx, url, variant, d)
}

// RecordRequest records a request outcome for url under variant.
func (g *Gate) RecordRequest(ctx context.Context, url string, variant relay.Variant, success bool) error {
	s, err := g.ready()
	if err != nil {
		return err
	}
	return s.UpdateWeightsWithRequest(ctx, url, variant, success)
}

// GetRelay checks out the relay at position rank within variant's list,
// wrapping it in a Handle that returns the relay to this Gate's
// scheduler on Release. A finalizer is attached as a best-effort
// backstop for callers that forget to Release explicitly — Go has no
// deterministic destructor, so this is advisory, not a substitute for
// calling Release.
func (g *Gate) GetRelay(ctx context.Context, variant relay.Variant, rank int, isServerSide bool) (*relay.Handle, error) {
	s, err := g.ready()
	if err != nil {
		return nil, err
	}
	url, err := s.GetRelayByWeightedRoundRobin(ctx, variant, rank, isServerSide)
	if err != nil {
		return nil, err
	}
	h := relay.NewHandle(url, variant, s)
	runtime.SetFinalizer(h, func(h *relay.Handle) {
		h.Release(context.Background())
	})
	return h, nil
}

// Contains reports whether url is tracked under any variant.
func (g *Gate) Contains(url string) bool {
	s, err := g.ready()
	if err != nil {
		return false
	}
	return s.Contains(url)
}

// Save flushes the current registry state to the persistence bridge.
func (g *Gate) Save(ctx context.Context) error {
	s, err := g.ready()
	if err != nil {
		return err
	}
	s.Save(ctx)
	return nil
}

// Stats returns a snapshot of the current list sizes.
func (g *Gate) Stats() (selector.Stats, error) {
	s, err := g.ready()
	if err != nil {
		return selector.Stats{}, err
	}
	return s.Stats(), nil
}
