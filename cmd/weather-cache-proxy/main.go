package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-cache-proxy/internal/api/http"
	"github.com/i474232898/weather-cache-proxy/internal/config"
	"github.com/i474232898/weather-cache-proxy/internal/metrics"
	"github.com/i474232898/weather-cache-proxy/internal/scheduler"
	"github.com/i474232898/weather-cache-proxy/internal/store"
	"github.com/i474232898/weather-cache-proxy/internal/weather"
	"github.com/i474232898/weather-cache-proxy/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Cache store: Redis when configured, otherwise in-memory.
	var cacheStore weather.Store
	if cfg.RedisHost != "" {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr(),
			DB:   cfg.RedisDB,
		})
		cacheStore = store.NewRedisStore(client)
		zlog.Info("using redis cache store", zap.String("addr", cfg.RedisAddr()), zap.Int("db", cfg.RedisDB))
	} else {
		cacheStore = store.NewMemoryStore()
		zlog.Info("REDIS_HOST not set; using in-memory cache store")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	openMeteo := providers.NewOpenMeteoClient(httpClient, zlog)

	geocoders := []weather.Geocoder{openMeteo}
	if cfg.GoogleGeocoderAPIKey != "" {
		geocoders = append(geocoders, providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey, zlog))
	}
	geocoder := providers.NewChainGeocoder(zlog, geocoders...)

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	// Core cache-aside orchestrator.
	service := weather.NewService(cacheStore, geocoder, openMeteo, weather.Config{
		TTL:             cfg.WeatherTTL,
		UpstreamTimeout: cfg.UpstreamTimeout,
		Logger:          zlog,
		Metrics:         recorder,
	})

	// Pre-warm scheduler for configured cities.
	sched := scheduler.New(cfg.WarmCities, cfg.WarmInterval, service, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-cache-proxy",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return uuid.NewString() },
	}))
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(httpapi.Metrics(recorder))

	// API routes and metrics exposition.
	httpapi.RegisterRoutes(app, service)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}
