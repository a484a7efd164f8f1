package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-cache-proxy/internal/store"
)

// Cache key namespaces. City resolutions are stable and stored without TTL;
// weather snapshots expire after the configured freshness window.
const (
	cityKeyPrefix    = "city:"
	weatherKeyPrefix = "weather:"
)

// Config carries the tunables of the service.
type Config struct {
	// TTL is the weather freshness window applied on every cache write.
	TTL time.Duration
	// UpstreamTimeout bounds one resolve-plus-fetch round trip.
	UpstreamTimeout time.Duration

	Logger  *zap.Logger
	Metrics Metrics
}

// Service is the cache-aside orchestrator: it serves weather snapshots from
// the cache and, on miss, coordinates at most one upstream fetch per city key
// regardless of how many callers are asking concurrently.
type Service struct {
	store    Store
	geocoder Geocoder
	provider Provider

	ttl             time.Duration
	upstreamTimeout time.Duration
	logger          *zap.Logger
	metrics         Metrics

	// flights is the in-flight fetch registry, keyed by normalized city key.
	// An entry lives for exactly one upstream round trip and is removed on
	// completion whatever the outcome.
	flights singleflight.Group
}

// NewService creates a Service. Zero Config fields fall back to a 10 minute
// TTL, a 10 second upstream timeout, a no-op logger and a no-op recorder.
func NewService(st Store, geocoder Geocoder, provider Provider, cfg Config) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics{}
	}

	return &Service{
		store:           st,
		geocoder:        geocoder,
		provider:        provider,
		ttl:             cfg.TTL,
		upstreamTimeout: cfg.UpstreamTimeout,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
	}
}

// Current returns the current weather for cityName, serving from the cache
// when a live entry exists and fetching upstream otherwise. Concurrent
// callers that miss on the same key attach to a single shared fetch and all
// observe its outcome.
func (s *Service) Current(ctx context.Context, cityName string) (Snapshot, error) {
	key := NormalizeCityKey(cityName)
	if key == "" {
		return Snapshot{}, ErrInvalidCity
	}

	if snap, ok := s.cachedSnapshot(ctx, key); ok {
		s.metrics.CacheHit()
		s.logger.Debug("cache hit", zap.String("key", key))
		return snap, nil
	}
	s.metrics.CacheMiss()
	s.logger.Debug("cache miss", zap.String("key", key))

	return s.fetchShared(ctx, key, cityName)
}

// Warm ensures a live cache entry exists for cityName, fetching upstream only
// when the entry is absent or expired. Valid entries are left to age out on
// their own TTL so repeated reads stay identical until expiry.
func (s *Service) Warm(ctx context.Context, cityName string) error {
	key := NormalizeCityKey(cityName)
	if key == "" {
		return ErrInvalidCity
	}

	ok, err := s.store.Exists(ctx, weatherKeyPrefix+key)
	if err != nil {
		s.logger.Warn("cache existence check failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return nil
	}

	_, err = s.fetchShared(ctx, key, cityName)
	return err
}

// Health reports reachability of the cache store and the weather upstream,
// checked independently.
type Health struct {
	Store    bool
	Upstream bool
}

// Health probes both dependencies.
func (s *Service) Health(ctx context.Context) Health {
	return Health{
		Store:    s.store.Ping(ctx) == nil,
		Upstream: s.provider.Ping(ctx) == nil,
	}
}

// fetchShared joins or starts the single in-flight fetch for key. The caller
// waits on its own context: cancelling a caller abandons the wait but leaves
// the fetch running for any other attached callers.
func (s *Service) fetchShared(ctx context.Context, key, cityName string) (Snapshot, error) {
	ch := s.flights.DoChan(key, func() (interface{}, error) {
		return s.fetchAndStore(key, cityName)
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		if res.Shared {
			s.metrics.CoalescedFetch()
		}
		return res.Val.(Snapshot), nil
	}
}

// fetchAndStore is the body of one in-flight fetch. It runs on a detached
// context bounded by the upstream timeout so that a single caller's
// cancellation cannot fail waiters attached to the same flight.
func (s *Service) fetchAndStore(key, cityName string) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.upstreamTimeout)
	defer cancel()

	// A flight that finished between our cache miss and this point may have
	// populated the entry already.
	if snap, ok := s.cachedSnapshot(ctx, key); ok {
		return snap, nil
	}

	city, err := s.resolveCity(ctx, key, cityName)
	if err != nil {
		return Snapshot{}, err
	}

	start := time.Now()
	snap, err := s.provider.Current(ctx, city)
	s.metrics.ObserveUpstream("current", time.Since(start))
	if err != nil {
		s.metrics.UpstreamFailure("current")
		s.logger.Error("upstream fetch failed", zap.String("key", key), zap.Error(err))
		return Snapshot{}, classifyUpstreamErr(err)
	}

	// A write failure is logged and swallowed: the caller still gets the
	// freshly fetched snapshot.
	if raw, merr := json.Marshal(snap); merr == nil {
		if serr := s.store.Set(ctx, weatherKeyPrefix+key, raw, s.ttl); serr != nil {
			s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(serr))
		}
	}

	return snap, nil
}

// resolveCity returns coordinates for cityName, cache-aside over the city
// namespace. Resolutions do not expire.
func (s *Service) resolveCity(ctx context.Context, key, cityName string) (City, error) {
	raw, err := s.store.Get(ctx, cityKeyPrefix+key)
	if err == nil {
		var city City
		if uerr := json.Unmarshal(raw, &city); uerr == nil {
			return city, nil
		}
		s.logger.Warn("city cache payload corrupt", zap.String("key", key))
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Warn("city cache read failed", zap.String("key", key), zap.Error(err))
	}

	start := time.Now()
	city, err := s.geocoder.Lookup(ctx, cityName)
	s.metrics.ObserveUpstream("resolve", time.Since(start))
	if err != nil {
		s.metrics.UpstreamFailure("resolve")
		s.logger.Error("city resolution failed", zap.String("city", cityName), zap.Error(err))
		if errors.Is(err, ErrCityNotFound) {
			return City{}, err
		}
		return City{}, classifyUpstreamErr(err)
	}

	if raw, merr := json.Marshal(city); merr == nil {
		if serr := s.store.Set(ctx, cityKeyPrefix+key, raw, 0); serr != nil {
			s.logger.Warn("city cache write failed", zap.String("key", key), zap.Error(serr))
		}
	}

	return city, nil
}

// cachedSnapshot reads the weather entry for key. Store failures are logged
// and reported as a miss so the request can degrade to a direct fetch.
func (s *Service) cachedSnapshot(ctx context.Context, key string) (Snapshot, bool) {
	raw, err := s.store.Get(ctx, weatherKeyPrefix+key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.logger.Warn("cache payload corrupt", zap.String("key", key), zap.Error(err))
		return Snapshot{}, false
	}
	snap.Cached = true
	return snap, true
}

// classifyUpstreamErr folds transport failures, including deadline overruns,
// into ErrUpstreamUnavailable while preserving already-classified errors.
func classifyUpstreamErr(err error) error {
	if errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrCityNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}
