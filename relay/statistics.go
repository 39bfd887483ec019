package relay

import (
	"math"
	"sync"
	"time"

	"github.com/girino/relay-selector/weight"
)

// Statistics is the mutable per-relay record the weight kernel reads
// from. Every mutator recomputes and returns the fresh (initial, current)
// weight pair; no other code path may touch a relay's weight directly,
// per spec.
//
// One mutex per record, same as RankCache and RelayStore guard their own
// state in the teacher pack, rather than a single lock over the whole
// registry's statistics map.
type Statistics struct {
	mu sync.Mutex

	requests           uint32
	successfulRequests uint32
	responseTimes      []time.Duration
	trustLevel         float32
	vendorScore        float32
	activeConnections  uint8
}

// New returns a freshly zeroed Statistics record.
func New() *Statistics {
	return &Statistics{}
}

// Snapshot is a read-only copy of a Statistics record, used by the
// persistence bridge and by tests.
type Snapshot struct {
	Requests           uint32
	SuccessfulRequests uint32
	ResponseTimes      []time.Duration
	TrustLevel         float32
	VendorScore        float32
	ActiveConnections  uint8
}

// Snapshot returns a copy of the current state.
func (s *Statistics) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Statistics) snapshotLocked() Snapshot {
	times := make([]time.Duration, len(s.responseTimes))
	copy(times, s.responseTimes)
	return Snapshot{
		Requests:           s.requests,
		SuccessfulRequests: s.successfulRequests,
		ResponseTimes:      times,
		TrustLevel:         s.trustLevel,
		VendorScore:        s.vendorScore,
		ActiveConnections:  s.activeConnections,
	}
}

func (s *Statistics) computeLocked() (initial, current float32) {
	return weight.Compute(weight.Inputs{
		ResponseTimes:      s.responseTimes,
		SuccessfulRequests: s.successfulRequests,
		Requests:           s.requests,
		TrustLevel:         s.trustLevel,
		VendorScore:        s.vendorScore,
		ActiveConnections:  s.activeConnections,
	})
}

// AddResponseTime appends a response time sample and recomputes weights.
// A negative or non-finite duration is rejected with ErrInvalidDuration.
func (s *Statistics) AddResponseTime(d time.Duration) (initial, current float32, err error) {
	if d < 0 || math.IsNaN(float64(d)) || math.IsInf(float64(d), 0) {
		return 0, 0, ErrInvalidDuration
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseTimes = append(s.responseTimes, d)
	initial, current = s.computeLocked()
	return initial, current, nil
}

// AddRequest records a completed request, incrementing the success
// counter too when success is true, and recomputes weights.
func (s *Statistics) AddRequest(success bool) (initial, current float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	if success {
		s.successfulRequests++
	}
	return s.computeLocked()
}

// AddActiveConnection increments the active-connection counter and
// recomputes weights. Returns ErrLimitExceeded if the counter would
// overflow its 8-bit range.
func (s *Statistics) AddActiveConnection() (initial, current float32, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeConnections == math.MaxUint8 {
		return 0, 0, ErrLimitExceeded
	}
	s.activeConnections++
	initial, current = s.computeLocked()
	return initial, current, nil
}

// RemoveActiveConnection decrements the active-connection counter,
// clamping at zero, and recomputes weights.
func (s *Statistics) RemoveActiveConnection() (initial, current float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeConnections > 0 {
		s.activeConnections--
	}
	return s.computeLocked()
}

// UpdateTrustLevel replaces the administrator-supplied trust level and
// recomputes weights.
func (s *Statistics) UpdateTrustLevel(v float32) (initial, current float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trustLevel = v
	return s.computeLocked()
}

// UpdateVendorScore replaces the administrator-supplied vendor score and
// recomputes weights.
func (s *Statistics) UpdateVendorScore(v float32) (initial, current float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendorScore = v
	return s.computeLocked()
}

// RestoreFromSnapshot overwrites the record's fields verbatim, used by
// the persistence bridge on load. It does not recompute weights; the
// caller is expected to trust the persisted weight values instead.
func (s *Statistics) RestoreFromSnapshot(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = snap.Requests
	s.successfulRequests = snap.SuccessfulRequests
	s.responseTimes = append([]time.Duration(nil), snap.ResponseTimes...)
	s.trustLevel = snap.TrustLevel
	s.vendorScore = snap.VendorScore
	s.activeConnections = snap.ActiveConnections
}
