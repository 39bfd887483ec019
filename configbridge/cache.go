package configbridge

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/girino/relay-selector/logging"
)

// Cache wraps a Provider with a time-to-live cache and singleflight
// request de-duplication, grounded directly on wotrlay's RankCache: a
// map behind an RWMutex, a staleness threshold, and a singleflight.Group
// so that N concurrent callers asking for the same config value during a
// cold cache trigger exactly one upstream fetch.
//
// Any fetch failure degrades to the spec's defaults (0.0 trust/vendor,
// empty allow-list) rather than propagating — config bridge calls must
// never fail a record-* or insert call.
type Cache struct {
	provider Provider
	ttl      time.Duration

	mu             sync.RWMutex
	trustLevels    map[string]float64
	trustLevelsAt  time.Time
	vendorScores   map[string]float64
	vendorScoresAt time.Time
	allowList      []string
	allowListAt    time.Time

	flight singleflight.Group
}

// NewCache constructs a Cache over provider with the given freshness
// window.
func NewCache(provider Provider, ttl time.Duration) *Cache {
	return &Cache{provider: provider, ttl: ttl}
}

// TrustLevel returns the trust level for url, defaulting to 0.0 if the
// map is unavailable or url is absent from it.
func (c *Cache) TrustLevel(ctx context.Context, url string) float64 {
	levels := c.trustLevelsFresh(ctx)
	return levels[url]
}

// VendorScore returns the vendor score for url, defaulting to 0.0.
func (c *Cache) VendorScore(ctx context.Context, url string) float64 {
	scores := c.vendorScoresFresh(ctx)
	return scores[url]
}

// IsAllowed reports whether url is present on the server-side allow
// list. An unavailable allow-list degrades to "deny" for every URL, per
// spec.
func (c *Cache) IsAllowed(ctx context.Context, url string) bool {
	list := c.allowListFresh(ctx)
	for _, u := range list {
		if u == url {
			return true
		}
	}
	return false
}

// AllowList returns the full server-side allow-list, degrading to an
// empty slice if it is unavailable. Used both by IsAllowed and by the
// scheduler's cold-start default seeding.
func (c *Cache) AllowList(ctx context.Context) []string {
	return c.allowListFresh(ctx)
}

func (c *Cache) trustLevelsFresh(ctx context.Context) map[string]float64 {
	c.mu.RLock()
	levels, at := c.trustLevels, c.trustLevelsAt
	c.mu.RUnlock()
	if levels != nil && time.Since(at) <= c.ttl {
		return levels
	}

	v, _, _ := c.flight.Do(TrustLevelsKey, func() (any, error) {
		c.mu.RLock()
		levels, at := c.trustLevels, c.trustLevelsAt
		c.mu.RUnlock()
		if levels != nil && time.Since(at) <= c.ttl {
			return levels, nil
		}
		fetched, err := TrustLevels(ctx, c.provider)
		if err != nil {
			logging.DebugMethod("configbridge", "trustLevelsFresh", "fetch failed, degrading to defaults: %v", err)
			fetched = map[string]float64{}
		}
		c.mu.Lock()
		c.trustLevels = fetched
		c.trustLevelsAt = time.Now()
		c.mu.Unlock()
		return fetched, nil
	})
	if m, ok := v.(map[string]float64); ok {
		return m
	}
	return map[string]float64{}
}

func (c *Cache) vendorScoresFresh(ctx context.Context) map[string]float64 {
	c.mu.RLock()
	scores, at := c.vendorScores, c.vendorScoresAt
	c.mu.RUnlock()
	if scores != nil && time.Since(at) <= c.ttl {
		return scores
	}

	v, _, _ := c.flight.Do(VendorScoresKey, func() (any, error) {
		c.mu.RLock()
		scores, at := c.vendorScores, c.vendorScoresAt
		c.mu.RUnlock()
		if scores != nil && time.Since(at) <= c.ttl {
			return scores, nil
		}
		fetched, err := VendorScores(ctx, c.provider)
		if err != nil {
			logging.DebugMethod("configbridge", "vendorScoresFresh", "fetch failed, degrading to defaults: %v", err)
			fetched = map[string]float64{}
		}
		c.mu.Lock()
		c.vendorScores = fetched
		c.vendorScoresAt = time.Now()
		c.mu.Unlock()
		return fetched, nil
	})
	if m, ok := v.(map[string]float64); ok {
		return m
	}
	return map[string]float64{}
}

func (c *Cache) allowListFresh(ctx context.Context) []string {
	c.mu.RLock()
	list, at := c.allowList, c.allowListAt
	c.mu.RUnlock()
	if list != nil && time.Since(at) <= c.ttl {
		return list
	}

	v, _, _ := c.flight.Do(ServerAllowListKey, func() (any, error) {
		c.mu.RLock()
		list, at := c.allowList, c.allowListAt
		c.mu.RUnlock()
		if list != nil && time.Since(at) <= c.ttl {
			return list, nil
		}
		fetched, err := ServerAllowList(ctx, c.provider)
		if err != nil {
			logging.DebugMethod("configbridge", "allowListFresh", "fetch failed, degrading to deny: %v", err)
			fetched = []string{}
		}
		c.mu.Lock()
		c.allowList = fetched
		c.allowListAt = time.Now()
		c.mu.Unlock()
		return fetched, nil
	})
	if l, ok := v.([]string); ok {
		return l
	}
	return []string{}
}

// Invalidate clears all cached values, forcing the next lookup to go
// back to the provider. Intended for tests and for hosts that know
// configuration changed out of band.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trustLevels = nil
	c.vendorScores = nil
	c.allowList = nil
}
