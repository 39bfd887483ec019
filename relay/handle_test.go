package relay

import (
	"context"
	"sync"
	"testing"
)

type countingReleaser struct {
	mu    sync.Mutex
	calls int
}

func (c *countingReleaser) ReturnRelay(ctx context.Context, url string, variant Variant) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func TestHandleReleaseIdempotent(t *testing.T) {
	r := &countingReleaser{}
	h := NewHandle("wss://relay.example", General, r)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Release(context.Background())
		}()
	}
	wg.Wait()

	if r.calls != 1 {
		t.Errorf("ReturnRelay called %d times, want exactly 1", r.calls)
	}
}
