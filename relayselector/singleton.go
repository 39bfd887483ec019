package relayselector

import (
	"context"
	"sync"
	"time"

	"github.com/girino/relay-selector/configbridge"
	"github.com/girino/relay-selector/relay"
	"github.com/girino/relay-selector/selector"
	"github.com/girino/relay-selector/store"
)

var (
	defaultMu   sync.Mutex
	defaultGate *Gate
)

// Default returns the process-wide Gate, constructing it with an
// in-memory store on first call. Hosts that need a durable store or a
// configuration provider should call SetDefault before the first
// operation instead of relying on this fallback.
func Default() *Gate {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultGate == nil {
		defaultGate = NewGate(store.NewMemoryStore())
	}
	return defaultGate
}

// SetDefault replaces the process-wide Gate. Intended for host
// processes that want to configure persistence and configuration
// sources before the first package-level call.
func SetDefault(g *Gate) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultGate = g
}

// Init ensures the default Gate has loaded.
func Init(ctx context.Context) error {
	return Default().Ensure(ctx)
}

// SetConfigProvider attaches a configuration bridge to the default Gate.
func SetConfigProvider(p configbridge.Provider, ttl time.Duration) {
	Default().SetConfigProvider(p, ttl)
}

// AddRelay registers url under variant on the default Gate.
func AddRelay(ctx context.Context, url string, variant relay.Variant) error {
	return Default().AddRelay(ctx, url, variant)
}

// RecordResponseTime records a response-time sample on the default Gate.
func RecordResponseTime(ctx context.Context, url string, variant relay.Variant, d time.Duration) error {
	return Default().RecordResponseTime(ctx, url, variant, d)
}

// RecordRequest records a request outcome on the default Gate.
func RecordRequest(ctx context.Context, url string, variant relay.Variant, success bool) error {
	return Default().RecordRequest(ctx, url, variant, success)
}

// GetRelay checks out a relay from the default Gate.
func GetRelay(ctx context.Context, variant relay.Variant, rank int, isServerSide bool) (*relay.Handle, error) {
	return Default().GetRelay(ctx, variant, rank, isServerSide)
}

// Save flushes the default Gate's registry to its persistence bridge.
func Save(ctx context.Context) error {
	return Default().Save(ctx)
}

// Stats returns a snapshot of the default Gate's registry.
func Stats() (selector.Stats, error) {
	return Default().Stats()
}
