package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-cache-proxy/internal/weather"
)

func newTestClient(geocodingURL, forecastURL string) *OpenMeteoClient {
	c := NewOpenMeteoClient(&http.Client{Timeout: time.Second}, nil)
	c.geocodingURL = geocodingURL
	c.forecastURL = forecastURL
	c.retry = RetryPolicy{MaxAttempts: 3, BaseInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	return c
}

func TestLookupResolvesCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "London" {
			t.Errorf("name = %q, want London", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"name":"London","country_code":"GB","latitude":51.50853,"longitude":-0.12574}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	city, err := c.Lookup(context.Background(), "London")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if city.Name != "London" || city.CountryCode != "GB" {
		t.Errorf("unexpected city: %+v", city)
	}
	if city.Latitude != 51.50853 || city.Longitude != -0.12574 {
		t.Errorf("unexpected coordinates: %+v", city)
	}
}

func TestLookupEmptyResultsIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"generationtime_ms":0.5}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.Lookup(context.Background(), "nosuchplace")
	if !errors.Is(err, weather.ErrCityNotFound) {
		t.Fatalf("got %v, want ErrCityNotFound", err)
	}
}

func TestLookupRejectsOutOfRangeCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"name":"Broken","country_code":"XX","latitude":123.0,"longitude":500.0}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.Lookup(context.Background(), "Broken")
	if !errors.Is(err, weather.ErrUpstreamUnavailable) {
		t.Fatalf("got %v, want ErrUpstreamUnavailable", err)
	}
}

func TestCurrentParsesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("current_weather") != "true" {
			t.Errorf("current_weather = %q, want true", q.Get("current_weather"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current_weather":{"temperature":18.5,"windspeed":12.3,"winddirection":215,"is_day":1,"weathercode":2,"time":"2026-01-02T12:00"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	city := weather.City{Name: "London", Latitude: 51.5, Longitude: -0.12}
	snap, err := c.Current(context.Background(), city)
	if err != nil {
		t.Fatalf("current: %v", err)
	}

	if snap.City != "London" || snap.TemperatureC != 18.5 || snap.WindspeedKmh != 12.3 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.WeatherCode != 2 || snap.Description != "Partly cloudy" {
		t.Errorf("unexpected condition: code=%d desc=%q", snap.WeatherCode, snap.Description)
	}
	if !snap.IsDay {
		t.Error("expected is_day to be true")
	}
	want := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	if !snap.Time.Equal(want) {
		t.Errorf("observation time = %v, want %v", snap.Time, want)
	}
	if snap.Cached {
		t.Error("fresh snapshot must not be marked cached")
	}
}

func TestCurrentMissingPayloadIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"elevation":38.0}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.Current(context.Background(), weather.City{Name: "London", Latitude: 51.5, Longitude: -0.12})
	if !errors.Is(err, weather.ErrUpstreamUnavailable) {
		t.Fatalf("got %v, want ErrUpstreamUnavailable", err)
	}
}

func TestCurrentRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current_weather":{"temperature":3.0,"windspeed":5.0,"winddirection":90,"is_day":0,"weathercode":0,"time":"2026-01-02T03:00"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	snap, err := c.Current(context.Background(), weather.City{Name: "Oslo", Latitude: 59.9, Longitude: 10.7})
	if err != nil {
		t.Fatalf("current with retries: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("upstream hit %d times, want 3", got)
	}
	if snap.IsDay {
		t.Error("expected is_day to be false")
	}
}

func TestCurrentGivesUpAfterMaxAttempts(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.Current(context.Background(), weather.City{Name: "Oslo", Latitude: 59.9, Longitude: 10.7})
	if !errors.Is(err, weather.ErrUpstreamUnavailable) {
		t.Fatalf("got %v, want ErrUpstreamUnavailable", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("upstream hit %d times, want 3", got)
	}
}

func TestPingReportsHealthyUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current_weather":{"temperature":10.0}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPingFailsOnBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	if err := c.Ping(context.Background()); !errors.Is(err, weather.ErrUpstreamUnavailable) {
		t.Fatalf("got %v, want ErrUpstreamUnavailable", err)
	}
}
