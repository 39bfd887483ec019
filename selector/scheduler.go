package selector

import (
	"context"
	"sync"
	"time"

	"github.com/girino/relay-selector/configbridge"
	"github.com/girino/relay-selector/logging"
	"github.com/girino/relay-selector/relay"
	"github.com/girino/relay-selector/store"
)

// Scheduler is the adaptive relay scheduler: the registry plus the
// collaborators it round-trips through on suspension points (config
// bridge, persistence bridge). All exported methods are safe for
// concurrent use.
type Scheduler struct {
	mu  sync.RWMutex
	reg *registry

	config    *configbridge.Cache
	persist   store.Store
	storeName string
}

// Config bundles a Scheduler's external collaborators.
type Config struct {
	ConfigProvider configbridge.Provider
	ConfigTTL      time.Duration // defaults to 5 minutes if zero
	Store          store.Store
	StoreName      string // defaults to store.DefaultStoreName if empty
}

// New constructs an unloaded Scheduler. Call Init before first use.
func New(cfg Config) *Scheduler {
	ttl := cfg.ConfigTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	storeName := cfg.StoreName
	if storeName == "" {
		storeName = store.DefaultStoreName
	}
	return &Scheduler{
		reg:       newRegistry(),
		config:    configbridge.NewCache(cfg.ConfigProvider, ttl),
		persist:   cfg.Store,
		storeName: storeName,
	}
}

// Init loads persisted records from the store, then seeds any variant
// list still empty afterward from the configuration bridge's allow-list
// (falling back to the hardcoded defaults in defaults.go if that fetch
// also comes up empty), per spec.md §4.6 step 6.
func (s *Scheduler) Init(ctx context.Context) error {
	records, err := s.persist.GetAll(ctx, s.storeName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for _, rec := range records {
		v, verr := rec.Variant()
		if verr != nil {
			logging.Warn("selector: skipping persisted record for %s: %v", rec.URL, verr)
			continue
		}
		s.loadRecordLocked(rec, v)
	}
	s.mu.Unlock()

	s.seedDefaults(ctx)
	return nil
}

func (s *Scheduler) loadRecordLocked(rec store.Record, v relay.Variant) {
	already, _ := s.reg.containsInVariant(rec.URL, v)
	stats, ok := s.reg.statistics[rec.URL]
	if !ok {
		stats = relay.New()
		s.reg.statistics[rec.URL] = stats
	}
	stats.RestoreFromSnapshot(relay.Snapshot{
		Requests:           rec.Requests,
		SuccessfulRequests: rec.SuccessfulRequests,
		ResponseTimes:      durationsOf(rec.ResponseTimes),
		TrustLevel:         rec.TrustLevel,
		VendorScore:        rec.VendorScore,
	})
	if !already {
		list, err := s.reg.listFor(v)
		if err != nil {
			return
		}
		*list = append(*list, rec.URL)
	}
	// Trust the persisted weight verbatim; do not re-run the kernel.
	s.reg.initialWeights[rec.URL] = rec.Weight
	s.reg.currentWeights[rec.URL] = rec.Weight
}

func durationsOf(pairs []store.DurationPair) []time.Duration {
	out := make([]time.Duration, len(pairs))
	for i, p := range pairs {
		out[i] = p.ToDuration()
	}
	return out
}

func (s *Scheduler) seedDefaults(ctx context.Context) {
	s.mu.Lock()
	emptyGeneral := len(s.reg.general) == 0
	emptyInbox := len(s.reg.inbox) == 0
	emptyOutbox := len(s.reg.outbox) == 0
	s.mu.Unlock()

	if !emptyGeneral && !emptyInbox && !emptyOutbox {
		return
	}

	allowList := s.config.AllowList(ctx)
	if len(allowList) == 0 {
		if emptyGeneral {
			s.seedList(relay.General, DefaultGeneralRelays)
		}
		if emptyInbox {
			s.seedList(relay.Inbox, DefaultInboxRelays)
		}
		if emptyOutbox {
			s.seedList(relay.Outbox, DefaultOutboxRelays)
		}
		return
	}

	if emptyGeneral {
		s.seedList(relay.General, allowList)
	}
	if emptyInbox {
		s.seedList(relay.Inbox, allowList)
	}
	if emptyOutbox {
		s.seedList(relay.Outbox, allowList)
	}
}

func (s *Scheduler) seedList(v relay.Variant, urls []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, url := range urls {
		if already, _ := s.reg.containsInVariant(url, v); already {
			continue
		}
		s.reg.insertUnconditional(url, v)
	}
	s.reg.sort(v)
}

// Insert adds url to variant's list if not already present, fetches its
// trust level and vendor score from the configuration bridge, and
// computes its initial weight. A url already listed under variant is a
// no-op. The config-bridge round trip happens with no lock held, so a
// slow or stalled provider never blocks other schedulers calls.
func (s *Scheduler) Insert(ctx context.Context, url string, v relay.Variant) error {
	s.mu.Lock()
	already, err := s.reg.containsInVariant(url, v)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if already {
		s.mu.Unlock()
		return nil
	}
	stats := s.reg.insertUnconditional(url, v)
	s.mu.Unlock()

	trust := s.config.TrustLevel(ctx, url)
	vendor := s.config.VendorScore(ctx, url)
	stats.UpdateTrustLevel(float32(trust))
	initial, current := stats.UpdateVendorScore(float32(vendor))

	s.mu.Lock()
	s.reg.writeWeights(url, initial, current)
	s.reg.sort(v)
	s.mu.Unlock()
	return nil
}

// UpdateWeightsWithResponseTime records a response-time sample for url
// and recomputes its weight. If url is not yet tracked under variant it
// is inserted with default weights first, mirroring the original's
// get_mut_statistics auto-creation — this path does not consult the
// configuration bridge, so it can never block or fail on config
// unavailability.
func (s *Scheduler) UpdateWeightsWithResponseTime(ctx context.Context, url string, v relay.Variant, d time.Duration) error {
	stats, err := s.ensureStatistics(url, v)
	if err != nil {
		return err
	}
	initial, current, err := stats.AddResponseTime(d)
	if err != nil {
		return err
	}
	s.writeBack(url, initial, current)
	return nil
}

// UpdateWeightsWithRequest records a request outcome for url and
// recomputes its weight, auto-creating the record like
// UpdateWeightsWithResponseTime.
func (s *Scheduler) UpdateWeightsWithRequest(ctx context.Context, url string, v relay.Variant, success bool) error {
	stats, err := s.ensureStatistics(url, v)
	if err != nil {
		return err
	}
	initial, current := stats.AddRequest(success)
	s.writeBack(url, initial, current)
	return nil
}

func (s *Scheduler) ensureStatistics(url string, v relay.Variant) (*relay.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.ensureStatistics(url, v)
}

// writeBack copies a freshly recomputed weight pair into the registry's
// weight maps. Deliberately does not re-sort: sorting happens only at
// checkout and return, to bound sort frequency to O(picks) rather than
// O(every response-time/request sample).
func (s *Scheduler) writeBack(url string, initial, current float32) {
	s.mu.Lock()
	s.reg.writeWeights(url, initial, current)
	s.mu.Unlock()
}

// GetRelayByWeightedRoundRobin returns the relay at position rank within
// variant's list, ordered by descending current weight. When
// isServerSide is true the returned relay is additionally checked
// against the configuration bridge's allow-list, degrading to
// ErrNotAllowed if it is absent (never silently substituting another
// relay). Checking out a relay increments its active-connection count
// and re-sorts variant's list, since that count biases the weight
// calculation upward.
func (s *Scheduler) GetRelayByWeightedRoundRobin(ctx context.Context, v relay.Variant, rank int, isServerSide bool) (string, error) {
	s.mu.RLock()
	list, err := s.reg.schedulableListFor(v)
	if err != nil {
		s.mu.RUnlock()
		return "", err
	}
	if rank < 0 || rank >= len(*list) {
		s.mu.RUnlock()
		return "", ErrRankOutOfRange
	}
	url := (*list)[rank]
	s.mu.RUnlock()

	if isServerSide && !s.config.IsAllowed(ctx, url) {
		return "", ErrNotAllowed
	}

	s.mu.Lock()
	stats, ok := s.reg.statistics[url]
	if !ok {
		// The core never removes URLs once listed, so this should not
		// happen in practice; treat it like an unknown relay.
		s.mu.Unlock()
		return "", ErrRankOutOfRange
	}
	initial, current, err := stats.AddActiveConnection()
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.reg.writeWeights(url, initial, current)
	s.reg.sort(v)
	s.mu.Unlock()

	return url, nil
}

// ReturnRelay implements relay.Releaser. Returning an unknown url is
// logged and swallowed rather than treated as an error: callers release
// handles during teardown, where a hard failure would be unhelpful.
func (s *Scheduler) ReturnRelay(ctx context.Context, url string, v relay.Variant) {
	s.mu.Lock()
	stats, ok := s.reg.statistics[url]
	if !ok {
		s.mu.Unlock()
		logging.Warn("selector: ReturnRelay called for unknown url %s", url)
		return
	}
	initial, current := stats.RemoveActiveConnection()
	s.reg.writeWeights(url, initial, current)
	s.reg.sort(v)
	s.mu.Unlock()
}

// Contains reports whether url is tracked under any variant.
func (s *Scheduler) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg.contains(url)
}

// Save materializes the current registry state into the persistence
// bridge. Failures are logged and swallowed: a store outage at teardown
// must not surface as a caller-visible error, matching the spec's
// requirement that persistence never blocks the lifecycle.
func (s *Scheduler) Save(ctx context.Context) {
	records := s.snapshotRecords()
	if err := s.persist.PutAll(ctx, s.storeName, records); err != nil {
		logging.Warn("selector: saving relay records failed: %v", err)
	}
}

func (s *Scheduler) snapshotRecords() []store.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []store.Record
	records = append(records, s.variantRecords(s.reg.general, relay.General)...)
	records = append(records, s.variantRecords(s.reg.inbox, relay.Inbox)...)
	records = append(records, s.variantRecords(s.reg.outbox, relay.Outbox)...)
	return records
}

func (s *Scheduler) variantRecords(urls []string, v relay.Variant) []store.Record {
	out := make([]store.Record, 0, len(urls))
	for _, url := range urls {
		stats, ok := s.reg.statistics[url]
		if !ok {
			continue
		}
		snap := stats.Snapshot()
		pairs := make([]store.DurationPair, len(snap.ResponseTimes))
		for i, d := range snap.ResponseTimes {
			pairs[i] = store.DurationPairOf(d)
		}
		out = append(out, store.Record{
			URL:                url,
			VariantName:        v.String(),
			Requests:           snap.Requests,
			SuccessfulRequests: snap.SuccessfulRequests,
			ResponseTimes:      pairs,
			TrustLevel:         snap.TrustLevel,
			VendorScore:        snap.VendorScore,
			Weight:             s.reg.initialWeights[url],
		})
	}
	return out
}

// Stats is a point-in-time summary of a Scheduler's registry, grounded
// on RelayStore.Stats()/MirrorManager.Stats() in the teacher repo.
type Stats struct {
	GeneralCount int
	InboxCount   int
	OutboxCount  int
}

// Stats returns a snapshot of the current list sizes.
func (s *Scheduler) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		GeneralCount: len(s.reg.general),
		InboxCount:   len(s.reg.inbox),
		OutboxCount:  len(s.reg.outbox),
	}
}
