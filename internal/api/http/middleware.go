package httpapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-cache-proxy/internal/metrics"
)

// Metrics returns a middleware recording request counts and latency per
// route. It runs the rest of the chain first so the final status, including
// statuses produced by the error handler, is what gets recorded.
func Metrics(recorder *metrics.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}

		recorder.ObserveHTTP(c.Method(), c.Path(), status, time.Since(start))
		return err
	}
}
