package weather

import (
	"context"
	"time"
)

// Geocoder resolves a city name to coordinates. Implementations must return
// ErrCityNotFound when the name cannot be mapped and ErrUpstreamUnavailable
// for transport-level failures.
type Geocoder interface {
	Name() string
	Lookup(ctx context.Context, name string) (City, error)
}

// Provider fetches current weather for resolved coordinates (e.g. Open-Meteo).
type Provider interface {
	Name() string
	Current(ctx context.Context, city City) (Snapshot, error)
	Ping(ctx context.Context) error
}

// Store is the key-value cache contract the service depends on. Values are
// opaque payloads; a ttl of zero means the entry never expires. Get must
// treat logically expired entries as absent (store.ErrNotFound) — the
// service never re-checks timestamps itself.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

// Metrics receives cache and upstream events emitted by the service. The
// /metrics endpoint itself is wired elsewhere; the service only reports.
type Metrics interface {
	CacheHit()
	CacheMiss()
	CoalescedFetch()
	UpstreamFailure(op string)
	ObserveUpstream(op string, d time.Duration)
}

// NopMetrics discards all events. Used when no recorder is configured.
type NopMetrics struct{}

func (NopMetrics) CacheHit()                             {}
func (NopMetrics) CacheMiss()                            {}
func (NopMetrics) CoalescedFetch()                       {}
func (NopMetrics) UpstreamFailure(string)                {}
func (NopMetrics) ObserveUpstream(string, time.Duration) {}
