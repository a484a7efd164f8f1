package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the environment-sourced configuration of the proxy.
type AppConfig struct {
	Port string

	// Redis connection. An empty RedisHost selects the in-memory store.
	RedisHost string
	RedisPort int
	RedisDB   int

	// WeatherTTL is the freshness window for cached weather entries.
	WeatherTTL time.Duration

	// UpstreamTimeout bounds one resolve-plus-fetch round trip.
	UpstreamTimeout time.Duration

	// HTTPTimeout is the outbound HTTP client timeout for provider calls.
	HTTPTimeout time.Duration

	// WarmCities are kept warm by the scheduler; empty disables pre-warming.
	WarmCities   []string
	WarmInterval time.Duration

	// GoogleGeocoderAPIKey enables the Google geocoding fallback when set.
	GoogleGeocoderAPIKey string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:                 getenvDefault("PORT", "8080"),
		RedisHost:            os.Getenv("REDIS_HOST"),
		RedisPort:            getenvInt("REDIS_PORT", 6379),
		RedisDB:              getenvInt("REDIS_DB", 0),
		GoogleGeocoderAPIKey: os.Getenv("GOOGLE_GEOCODER_API_KEY"),
	}

	// Weather TTL is configured in whole seconds; default 600.
	ttlSeconds := getenvInt("WEATHER_TTL", 600)
	if ttlSeconds <= 0 {
		return nil, fmt.Errorf("WEATHER_TTL must be positive, got %d", ttlSeconds)
	}
	cfg.WeatherTTL = time.Duration(ttlSeconds) * time.Second

	var err error
	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.WarmInterval, err = getenvDuration("WARM_INTERVAL", "5m"); err != nil {
		return nil, err
	}

	if cities := os.Getenv("WARM_CITIES"); cities != "" {
		for _, city := range strings.Split(cities, ",") {
			if city = strings.TrimSpace(city); city != "" {
				cfg.WarmCities = append(cfg.WarmCities, city)
			}
		}
	}

	return cfg, nil
}

// RedisAddr returns the host:port address for the Redis client.
func (c *AppConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
