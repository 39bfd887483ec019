// Package configbridge is the capability-object bridge to an external
// configuration source: per-relay trust levels, per-relay vendor scores,
// and the server-side allow-list. It is the Go analogue of the original's
// JS-callback ConfigProvider trait.
package configbridge

import (
	"context"
	"errors"
	"fmt"
)

// Configuration keys a Provider must support.
const (
	TrustLevelsKey     = "trustLevels"
	VendorScoresKey    = "vendorScores"
	ServerAllowListKey = "serverAllowList"
)

// ErrUnknownKey is returned by a Provider when asked for a key it does
// not recognize.
var ErrUnknownKey = errors.New("configbridge: unknown key")

// ErrNoProvider is returned when no Provider has been configured. The
// fetch functions below return it for a nil Provider, which Cache turns
// into the default trust/vendor/allow values instead of a nil-pointer
// panic; relayselector's Gate.Ensure returns it when SetConfigProvider
// was never called.
var ErrNoProvider = errors.New("configbridge: no provider configured")

// Provider is a capability object exposing configuration values by key.
// Get returns one of:
//   - TrustLevelsKey / VendorScoresKey: map[string]float64
//   - ServerAllowListKey: []string
type Provider interface {
	Get(ctx context.Context, key string) (any, error)
}

// FuncProvider adapts a plain function to the Provider interface — the
// Go shape of the original's JsConfigProvider, which wrapped a JS
// callback function the same way.
type FuncProvider func(ctx context.Context, key string) (any, error)

// Get implements Provider.
func (f FuncProvider) Get(ctx context.Context, key string) (any, error) {
	return f(ctx, key)
}

// TrustLevels fetches the full trust-level map, returning an error when
// the fetch fails or the value has the wrong type (Cache.TrustLevel turns
// such an error into the per-URL default of 0.0).
func TrustLevels(ctx context.Context, p Provider) (map[string]float64, error) {
	if p == nil {
		return nil, ErrNoProvider
	}
	v, err := p.Get(ctx, TrustLevelsKey)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]float64)
	if !ok {
		return nil, fmt.Errorf("configbridge: trustLevels: unexpected value type %T", v)
	}
	return m, nil
}

// VendorScores fetches the full vendor-score map.
func VendorScores(ctx context.Context, p Provider) (map[string]float64, error) {
	if p == nil {
		return nil, ErrNoProvider
	}
	v, err := p.Get(ctx, VendorScoresKey)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]float64)
	if !ok {
		return nil, fmt.Errorf("configbridge: vendorScores: unexpected value type %T", v)
	}
	return m, nil
}

// ServerAllowList fetches the server-side allow-list.
func ServerAllowList(ctx context.Context, p Provider) ([]string, error) {
	if p == nil {
		return nil, ErrNoProvider
	}
	v, err := p.Get(ctx, ServerAllowListKey)
	if err != nil {
		return nil, err
	}
	list, ok := v.([]string)
	if !ok {
		return nil, fmt.Errorf("configbridge: serverAllowList: unexpected value type %T", v)
	}
	return list, nil
}
