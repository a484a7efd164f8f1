package weather

import "errors"

var (
	// ErrInvalidCity is returned when the requested city name normalizes to
	// an empty cache key. Never retried; no cache or upstream access happens.
	ErrInvalidCity = errors.New("invalid city name")

	// ErrCityNotFound is returned when no geocoder can map the city name to
	// coordinates.
	ErrCityNotFound = errors.New("city not found")

	// ErrUpstreamUnavailable is returned for network errors, provider errors
	// and timeouts while talking to the weather upstream. Safe for clients
	// to retry; never cached.
	ErrUpstreamUnavailable = errors.New("weather upstream unavailable")
)
