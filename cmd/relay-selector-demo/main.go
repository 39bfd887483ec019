// Command relay-selector-demo exercises the relayselector library end to
// end: it loads a badger-backed store, wires a static configuration
// provider from the environment, inserts a handful of relays, and walks
// through a checkout/record/return cycle, logging as it goes.
package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/girino/relay-selector/configbridge"
	"github.com/girino/relay-selector/logging"
	"github.com/girino/relay-selector/relay"
	"github.com/girino/relay-selector/relayselector"
	"github.com/girino/relay-selector/store"
)

// config holds the demo's environment-derived settings.
type config struct {
	badgerPath  string
	configTTL   time.Duration
	generalURLs []string
	allowList   []string
}

// loadConfig reads environment variables, auto-loading a local .env file
// first. Ignores godotenv.Load's error so container deployments that
// don't ship a .env file keep working.
func loadConfig() config {
	_ = godotenv.Load()

	return config{
		badgerPath:  getEnvString("BADGER_PATH", "./relay-selector-badger"),
		configTTL:   time.Duration(getEnvFloat("CONFIG_TTL_SECONDS", 300)) * time.Second,
		generalURLs: getEnvList("GENERAL_RELAYS", []string{"wss://relay.damus.io", "wss://nos.lol"}),
		allowList:   getEnvList("SERVER_ALLOW_LIST", nil),
	}
}

func getEnvString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
		logging.Warn("invalid value for %s: %s, using default %v", key, v, defaultValue)
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	logging.SetVerbose(os.Getenv("VERBOSE"))
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	badgerStore, err := store.OpenBadgerStore(cfg.badgerPath)
	if err != nil {
		logging.Fatal("opening badger store at %s: %v", cfg.badgerPath, err)
	}
	defer badgerStore.Close()

	provider := configbridge.FuncProvider(func(_ context.Context, key string) (any, error) {
		switch key {
		case configbridge.TrustLevelsKey, configbridge.VendorScoresKey:
			return map[string]float64{}, nil
		case configbridge.ServerAllowListKey:
			return cfg.allowList, nil
		default:
			return nil, configbridge.ErrUnknownKey
		}
	})

	gate := relayselector.NewGate(badgerStore)
	gate.SetConfigProvider(provider, cfg.configTTL)

	if err := gate.Ensure(ctx); err != nil {
		logging.Fatal("initializing relay selector: %v", err)
	}

	for _, url := range cfg.generalURLs {
		if err := gate.AddRelay(ctx, url, relay.General); err != nil {
			logging.Warn("adding relay %s: %v", url, err)
		}
	}

	handle, err := gate.GetRelay(ctx, relay.General, 0, false)
	if err != nil {
		logging.Fatal("checking out a relay: %v", err)
	}
	logging.Info("checked out relay %s", handle.URL())

	start := time.Now()
	// Stand-in for an actual relay round trip; a real host would issue a
	// request over handle.URL() here.
	time.Sleep(5 * time.Millisecond)
	elapsed := time.Since(start)

	if err := gate.RecordResponseTime(ctx, handle.URL(), handle.Variant(), elapsed); err != nil {
		logging.Warn("recording response time: %v", err)
	}
	if err := gate.RecordRequest(ctx, handle.URL(), handle.Variant(), true); err != nil {
		logging.Warn("recording request outcome: %v", err)
	}

	handle.Release(ctx)

	stats, err := gate.Stats()
	if err != nil {
		logging.Warn("fetching stats: %v", err)
	} else {
		logging.Info("general=%d inbox=%d outbox=%d", stats.GeneralCount, stats.InboxCount, stats.OutboxCount)
	}

	if err := gate.Save(ctx); err != nil {
		logging.Warn("saving relay selector state: %v", err)
	}
}
