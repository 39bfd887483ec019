package relayselector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/girino/relay-selector/configbridge"
	"github.com/girino/relay-selector/relay"
	"github.com/girino/relay-selector/store"
)

func staticProvider(allowList []string) configbridge.Provider {
	return configbridge.FuncProvider(func(ctx context.Context, key string) (any, error) {
		switch key {
		case configbridge.TrustLevelsKey, configbridge.VendorScoresKey:
			return map[string]float64{}, nil
		case configbridge.ServerAllowListKey:
			return allowList, nil
		default:
			return nil, configbridge.ErrUnknownKey
		}
	})
}

func TestGateOperationsRequireEnsure(t *testing.T) {
	g := NewGate(store.NewMemoryStore())
	if err := g.AddRelay(context.Background(), "wss://relay.example", relay.General); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("AddRelay before Ensure: err = %v, want ErrNotInitialized", err)
	}
}

func TestGateEnsureFailsWithoutConfigProvider(t *testing.T) {
	g := NewGate(store.NewMemoryStore())
	if err := g.Ensure(context.Background()); !errors.Is(err, configbridge.ErrNoProvider) {
		t.Errorf("Ensure with no config provider registered: err = %v, want ErrNoProvider", err)
	}
	if g.initialized {
		t.Error("Gate marked initialized after an Ensure that failed for lack of a config provider")
	}
}

func TestGateEnsureSucceedsAfterLateConfigProvider(t *testing.T) {
	g := NewGate(store.NewMemoryStore())
	ctx := context.Background()

	if err := g.Ensure(ctx); !errors.Is(err, configbridge.ErrNoProvider) {
		t.Fatalf("first Ensure: err = %v, want ErrNoProvider", err)
	}

	g.SetConfigProvider(staticProvider(nil), time.Minute)
	if err := g.Ensure(ctx); err != nil {
		t.Fatalf("Ensure after registering a provider: %v", err)
	}
}

func TestGateEnsureIsExactlyOnceUnderConcurrency(t *testing.T) {
	g := NewGate(store.NewMemoryStore())
	g.SetConfigProvider(staticProvider(nil), time.Minute)

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = g.Ensure(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Ensure call %d returned %v, want nil", i, err)
		}
	}

	if !g.initialized {
		t.Fatal("Gate not marked initialized after Ensure")
	}
}

func TestGateAddRelayAndGetRelayRoundTrip(t *testing.T) {
	g := NewGate(store.NewMemoryStore())
	g.SetConfigProvider(staticProvider(nil), time.Minute)
	ctx := context.Background()
	if err := g.Ensure(ctx); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	if err := g.AddRelay(ctx, "wss://relay.example", relay.General); err != nil {
		t.Fatalf("AddRelay: %v", err)
	}

	handle, err := g.GetRelay(ctx, relay.General, 0, false)
	if err != nil {
		t.Fatalf("GetRelay: %v", err)
	}
	defer handle.Release(ctx)

	if handle.URL() == "" {
		t.Error("GetRelay returned a handle with an empty URL")
	}
}

func TestGateSetConfigProviderNoOpAfterInitialized(t *testing.T) {
	g := NewGate(store.NewMemoryStore())
	g.SetConfigProvider(staticProvider(nil), time.Minute)
	ctx := context.Background()
	if err := g.Ensure(ctx); err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	g.SetConfigProvider(nil, time.Minute) // must not panic, must be a no-op
	if g.cfg.ConfigProvider == nil {
		t.Error("SetConfigProvider mutated config after initialization")
	}
}
