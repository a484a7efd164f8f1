package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"

	"github.com/i474232898/weather-cache-proxy/internal/common"
	"github.com/i474232898/weather-cache-proxy/internal/weather"
)

// GoogleGeocoder resolves city names through the Google Geocoding API. It is
// wired in as a fallback behind Open-Meteo geocoding and only when an API key
// is configured.
type GoogleGeocoder struct {
	logger *zap.Logger
}

// NewGoogleGeocoder sets the package-level API key of the geocoder library
// and returns the resolver.
func NewGoogleGeocoder(apiKey string, logger *zap.Logger) *GoogleGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{logger: logger}
}

func (g *GoogleGeocoder) Name() string {
	return "google"
}

// Lookup geocodes the city name. The underlying library carries no context
// support; the request is bounded by the http default transport timeouts.
func (g *GoogleGeocoder) Lookup(_ context.Context, name string) (weather.City, error) {
	location, err := geocoder.Geocoding(geocoder.Address{City: name})
	if err != nil {
		if common.HasAny(err.Error(), "ZERO_RESULTS", "INVALID_REQUEST") {
			return weather.City{}, fmt.Errorf("%w: %q", weather.ErrCityNotFound, name)
		}
		g.logger.Error("google geocoding failed", zap.String("city", name), zap.Error(err))
		return weather.City{}, fmt.Errorf("%w: google geocoding: %v", weather.ErrUpstreamUnavailable, err)
	}

	if !validCoordinates(location.Latitude, location.Longitude) {
		return weather.City{}, fmt.Errorf("%w: google geocoding payload out of range", weather.ErrUpstreamUnavailable)
	}

	return weather.City{
		Name:      strings.TrimSpace(name),
		Latitude:  location.Latitude,
		Longitude: location.Longitude,
	}, nil
}
