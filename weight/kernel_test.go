package weight

import (
	"math"
	"testing"
	"time"
)

func TestComputeEmptyInputs(t *testing.T) {
	initial, current := Compute(Inputs{})
	if initial != 0 {
		t.Errorf("initial weight for zero requests = %v, want 0 (success rate is 0 when Requests == 0)", initial)
	}
	if current != initial {
		t.Errorf("current = %v, want equal to initial when ActiveConnections == 0", current)
	}
}

func TestComputeFloatSuccessRate(t *testing.T) {
	// 3 of 4 requests succeeded: success rate must be the real-valued
	// 0.75, not the original implementation's integer-truncating 0.
	initial, _ := Compute(Inputs{
		ResponseTimes:      []time.Duration{1 * time.Millisecond},
		SuccessfulRequests: 3,
		Requests:           4,
	})
	responseTimeWeight := float32(-math.Log10(1) + 1.0)
	want := responseTimeWeight * 0.75
	if math.Abs(float64(initial-want)) > 1e-6 {
		t.Errorf("initial = %v, want %v (success rate = 3/4 = 0.75)", initial, want)
	}

	initial, _ = Compute(Inputs{
		ResponseTimes:      []time.Duration{1 * time.Millisecond},
		SuccessfulRequests: 4,
		Requests:           4,
	})
	want = responseTimeWeight * 1.0
	if math.Abs(float64(initial-want)) > 1e-6 {
		t.Errorf("initial = %v, want %v (success rate = 4/4 = 1.0)", initial, want)
	}
}

func TestComputeActiveConnectionInflatesWeight(t *testing.T) {
	initial, current := Compute(Inputs{
		SuccessfulRequests: 1,
		Requests:           1,
		TrustLevel:         1,
		ActiveConnections:  3,
	})
	want := initial + 3*ConnectionWeight
	if math.Abs(float64(current-want)) > 1e-6 {
		t.Errorf("current = %v, want %v (active connections add, never subtract)", current, want)
	}
}

func TestMedianMillisEmpty(t *testing.T) {
	got := medianMillis(nil)
	if got != 1.0 {
		t.Errorf("medianMillis(nil) = %v, want 1.0", got)
	}
}

func TestMedianMillisOddEven(t *testing.T) {
	odd := medianMillis([]time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond})
	if odd != 20 {
		t.Errorf("median of odd sample = %v, want 20", odd)
	}

	even := medianMillis([]time.Duration{40 * time.Millisecond, 10 * time.Millisecond, 30 * time.Millisecond, 20 * time.Millisecond})
	if even != 25 {
		t.Errorf("median of even sample = %v, want 25", even)
	}
}

func TestSortDescendingTiebreak(t *testing.T) {
	urls := []string{"b", "a", "c"}
	current := map[string]float32{"a": 1, "b": 1, "c": 2}
	SortDescending(urls, current)
	want := []string{"c", "a", "b"}
	for i := range want {
		if urls[i] != want[i] {
			t.Fatalf("SortDescending = %v, want %v", urls, want)
		}
	}
}

func TestSortDescendingMissingEntry(t *testing.T) {
	urls := []string{"known", "unknown"}
	current := map[string]float32{"known": 1}
	SortDescending(urls, current) // must not panic
	if urls[0] != "known" {
		t.Errorf("SortDescending with missing map entry = %v, want known first", urls)
	}
}
