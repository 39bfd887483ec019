package relay

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestAddResponseTimeRejectsInvalid(t *testing.T) {
	s := New()
	if _, _, err := s.AddResponseTime(-time.Millisecond); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("negative duration: err = %v, want ErrInvalidDuration", err)
	}
}

func TestAddActiveConnectionOverflow(t *testing.T) {
	s := New()
	for i := 0; i < math.MaxUint8; i++ {
		if _, _, err := s.AddActiveConnection(); err != nil {
			t.Fatalf("unexpected error at connection %d: %v", i, err)
		}
	}
	if _, _, err := s.AddActiveConnection(); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("256th connection: err = %v, want ErrLimitExceeded", err)
	}
}

func TestRemoveActiveConnectionClampsAtZero(t *testing.T) {
	s := New()
	initial, current := s.RemoveActiveConnection()
	if initial != current {
		t.Errorf("RemoveActiveConnection on fresh record: initial=%v current=%v, want equal", initial, current)
	}
	snap := s.Snapshot()
	if snap.ActiveConnections != 0 {
		t.Errorf("ActiveConnections = %d, want 0 (clamped)", snap.ActiveConnections)
	}
}

func TestRestoreFromSnapshotCopiesFieldsVerbatim(t *testing.T) {
	s := New()
	s.RestoreFromSnapshot(Snapshot{
		Requests:           10,
		SuccessfulRequests: 10,
		TrustLevel:         5,
	})
	snap := s.Snapshot()
	if snap.TrustLevel != 5 || snap.Requests != 10 {
		t.Errorf("Snapshot after restore = %+v, want fields copied verbatim", snap)
	}
}
