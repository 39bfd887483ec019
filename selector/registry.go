package selector

import (
	"fmt"

	"github.com/girino/relay-selector/relay"
	"github.com/girino/relay-selector/weight"
)

// registry is the in-memory, mutex-guarded relay repository: the
// statistics map, the two weight maps, and the three ordered variant
// lists. A single sync.RWMutex protects all four together, because the
// spec's invariants (every listed URL has entries in all three maps)
// span them — the same "one lock over one cohesive piece of state"
// shape as RelayStore's mu guarding its relays map in the teacher repo.
type registry struct {
	statistics     map[string]*relay.Statistics
	initialWeights map[string]float32
	currentWeights map[string]float32

	general []string
	inbox   []string
	outbox  []string
}

func newRegistry() *registry {
	return &registry{
		statistics:     make(map[string]*relay.Statistics),
		initialWeights: make(map[string]float32),
		currentWeights: make(map[string]float32),
	}
}

// listFor returns a pointer to the slice field backing variant, mapping
// Local to General's list per spec.md's resolution: "inserting Local
// appends to general's list".
func (r *registry) listFor(v relay.Variant) (*[]string, error) {
	switch v {
	case relay.General, relay.Local:
		return &r.general, nil
	case relay.Inbox:
		return &r.inbox, nil
	case relay.Outbox:
		return &r.outbox, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidVariant, v)
	}
}

// schedulableListFor is like listFor but rejects Local outright: Local
// is accepted for insertion but may never be independently selected,
// per spec.md's resolution of the §9 ambiguity.
func (r *registry) schedulableListFor(v relay.Variant) (*[]string, error) {
	switch v {
	case relay.General:
		return &r.general, nil
	case relay.Inbox:
		return &r.inbox, nil
	case relay.Outbox:
		return &r.outbox, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalidVariant, v)
	}
}

// contains reports whether url is listed under any variant.
func (r *registry) contains(url string) bool {
	return containsString(r.general, url) || containsString(r.inbox, url) || containsString(r.outbox, url)
}

// containsInVariant reports whether url is listed under variant's list.
func (r *registry) containsInVariant(url string, v relay.Variant) (bool, error) {
	list, err := r.listFor(v)
	if err != nil {
		return false, err
	}
	return containsString(*list, url), nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// insertUnconditional appends url to variant's list and, if url has no
// Statistics record or weights yet, creates a fresh record and sets both
// weight maps to weight.Default; a url already listed under another
// variant keeps its existing record and weights. It
// does not check for duplicates or sort — callers are expected to have
// already confirmed url is absent from variant's list.
func (r *registry) insertUnconditional(url string, v relay.Variant) *relay.Statistics {
	list, _ := r.listFor(v) // v already validated by caller
	*list = append(*list, url)

	stats, ok := r.statistics[url]
	if !ok {
		stats = relay.New()
		r.statistics[url] = stats
	}
	if _, ok := r.initialWeights[url]; !ok {
		r.initialWeights[url] = weight.Default
		r.currentWeights[url] = weight.Default
	}
	return stats
}

// ensureStatistics returns url's Statistics record, inserting it into
// variant's list (with default weights) first if absent — the Go
// equivalent of the original's get_mut_statistics, which calls insert
// when contains(url) is false.
func (r *registry) ensureStatistics(url string, v relay.Variant) (*relay.Statistics, error) {
	if stats, ok := r.statistics[url]; ok {
		already, err := r.containsInVariant(url, v)
		if err != nil {
			return nil, err
		}
		if !already {
			list, err := r.listFor(v)
			if err != nil {
				return nil, err
			}
			*list = append(*list, url)
		}
		return stats, nil
	}
	return r.insertUnconditional(url, v), nil
}

func (r *registry) writeWeights(url string, initial, current float32) {
	r.initialWeights[url] = initial
	r.currentWeights[url] = current
}

func (r *registry) sort(v relay.Variant) {
	list, err := r.listFor(v)
	if err != nil {
		return
	}
	if len(*list) == 0 {
		return
	}
	weight.SortDescending(*list, r.currentWeights)
}
