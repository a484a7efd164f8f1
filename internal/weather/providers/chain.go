package providers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/i474232898/weather-cache-proxy/internal/weather"
)

// ChainGeocoder tries a sequence of geocoders in order, falling through on
// both not-found and transport failures. A definite not-found from any
// resolver is preserved when later resolvers are merely unreachable.
type ChainGeocoder struct {
	geocoders []weather.Geocoder
	logger    *zap.Logger
}

func NewChainGeocoder(logger *zap.Logger, geocoders ...weather.Geocoder) *ChainGeocoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChainGeocoder{geocoders: geocoders, logger: logger}
}

func (c *ChainGeocoder) Name() string {
	return "chain"
}

func (c *ChainGeocoder) Lookup(ctx context.Context, name string) (weather.City, error) {
	var lastErr error
	notFound := false

	for _, g := range c.geocoders {
		if err := ctx.Err(); err != nil {
			return weather.City{}, err
		}

		city, err := g.Lookup(ctx, name)
		if err == nil {
			return city, nil
		}
		if errors.Is(err, weather.ErrCityNotFound) {
			notFound = true
		}
		c.logger.Debug("geocoder failed, trying next",
			zap.String("geocoder", g.Name()), zap.String("city", name), zap.Error(err))
		lastErr = err
	}

	switch {
	case lastErr == nil:
		return weather.City{}, weather.ErrCityNotFound
	case notFound && !errors.Is(lastErr, weather.ErrCityNotFound):
		return weather.City{}, weather.ErrCityNotFound
	default:
		return weather.City{}, lastErr
	}
}
