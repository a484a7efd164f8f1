package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/weather-cache-proxy/internal/weather"
)

// OpenMeteoClient talks to the Open-Meteo geocoding and forecast APIs. It is
// both the primary Geocoder and the weather Provider: Open-Meteo needs no API
// key for either operation.
type OpenMeteoClient struct {
	name         string
	geocodingURL string
	forecastURL  string
	client       *http.Client
	retry        RetryPolicy
	circuit      *gobreaker.CircuitBreaker
	logger       *zap.Logger
}

func NewOpenMeteoClient(client *http.Client, logger *zap.Logger) *OpenMeteoClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenMeteoClient{
		name:         "openmeteo",
		geocodingURL: "https://geocoding-api.open-meteo.com/v1/search",
		forecastURL:  "https://api.open-meteo.com/v1/forecast",
		client:       client,
		retry:        defaultRetryPolicy(),
		circuit:      newBreaker("openmeteo"),
		logger:       logger,
	}
}

func (c *OpenMeteoClient) Name() string {
	return c.name
}

// Lookup resolves a city name via the geocoding API. An empty result set is
// ErrCityNotFound; transport failures and malformed payloads surface as
// ErrUpstreamUnavailable.
func (c *OpenMeteoClient) Lookup(ctx context.Context, name string) (weather.City, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", name)
		values.Set("count", "1")
		return http.NewRequest(http.MethodGet, c.geocodingURL+"?"+values.Encode(), nil)
	}

	resp, err := doWithRetry(ctx, c.client, c.circuit, c.retry, buildRequest)
	if err != nil {
		return weather.City{}, fmt.Errorf("%w: geocoding: %w", weather.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			Name        string  `json:"name"`
			CountryCode string  `json:"country_code"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.City{}, fmt.Errorf("%w: geocoding payload: %v", weather.ErrUpstreamUnavailable, err)
	}

	if len(payload.Results) == 0 {
		return weather.City{}, fmt.Errorf("%w: %q", weather.ErrCityNotFound, name)
	}

	top := payload.Results[0]
	if !validCoordinates(top.Latitude, top.Longitude) {
		c.logger.Error("geocoding returned out-of-range coordinates",
			zap.String("city", name), zap.Float64("lat", top.Latitude), zap.Float64("lon", top.Longitude))
		return weather.City{}, fmt.Errorf("%w: geocoding payload out of range", weather.ErrUpstreamUnavailable)
	}

	return weather.City{
		Name:        top.Name,
		CountryCode: top.CountryCode,
		Latitude:    top.Latitude,
		Longitude:   top.Longitude,
	}, nil
}

// Current fetches the current weather for resolved coordinates.
func (c *OpenMeteoClient) Current(ctx context.Context, city weather.City) (weather.Snapshot, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(city.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(city.Longitude, 'f', -1, 64))
		values.Set("current_weather", "true")
		return http.NewRequest(http.MethodGet, c.forecastURL+"?"+values.Encode(), nil)
	}

	resp, err := doWithRetry(ctx, c.client, c.circuit, c.retry, buildRequest)
	if err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: forecast: %w", weather.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	var payload struct {
		CurrentWeather *struct {
			Temperature   float64 `json:"temperature"`
			Windspeed     float64 `json:"windspeed"`
			Winddirection float64 `json:"winddirection"`
			IsDay         int     `json:"is_day"`
			WeatherCode   int     `json:"weathercode"`
			Time          string  `json:"time"`
		} `json:"current_weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: forecast payload: %v", weather.ErrUpstreamUnavailable, err)
	}
	if payload.CurrentWeather == nil {
		c.logger.Error("forecast payload missing current_weather", zap.String("city", city.Name))
		return weather.Snapshot{}, fmt.Errorf("%w: forecast payload incomplete", weather.ErrUpstreamUnavailable)
	}

	cw := payload.CurrentWeather
	return weather.Snapshot{
		City:             city.Name,
		Latitude:         city.Latitude,
		Longitude:        city.Longitude,
		Time:             parseObservationTime(cw.Time),
		TemperatureC:     cw.Temperature,
		WindspeedKmh:     cw.Windspeed,
		WinddirectionDeg: int(cw.Winddirection),
		IsDay:            cw.IsDay == 1,
		WeatherCode:      cw.WeatherCode,
		Description:      weather.DescribeWeatherCode(cw.WeatherCode),
		FetchedAt:        time.Now().UTC(),
	}, nil
}

// Ping probes the forecast endpoint with fixed coordinates to check upstream
// reachability. It bypasses retry and breaker on purpose: health checks
// should observe the upstream as-is.
func (c *OpenMeteoClient) Ping(ctx context.Context) error {
	values := url.Values{}
	values.Set("latitude", "51.5")
	values.Set("longitude", "0.12")
	values.Set("current_weather", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.forecastURL+"?"+values.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", weather.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", weather.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("%w: %v", weather.ErrUpstreamUnavailable, err)
	}
	if _, ok := payload["current_weather"]; !ok {
		return fmt.Errorf("%w: probe payload incomplete", weather.ErrUpstreamUnavailable)
	}
	return nil
}

// parseObservationTime handles both the minute-resolution ISO form Open-Meteo
// emits and full RFC3339 timestamps.
func parseObservationTime(s string) time.Time {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC()
	}
	if ts, err := time.Parse("2006-01-02T15:04", s); err == nil {
		return ts.UTC()
	}
	return time.Now().UTC()
}
