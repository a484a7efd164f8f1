package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-cache-proxy/internal/weather"
)

var validate = validator.New()

// weatherQuery holds the query parameters of the weather endpoint.
type weatherQuery struct {
	City string `validate:"required"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service) {
	app.Get("/weather", func(c *fiber.Ctx) error {
		q := weatherQuery{City: c.Query("city")}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "city query parameter is required")
		}

		snapshot, err := service.Current(c.UserContext(), q.City)
		if err != nil {
			return mapServiceError(err)
		}
		return c.JSON(snapshot)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		h := service.Health(ctx)

		status := fiber.StatusOK
		overall := "ok"
		if !h.Store || !h.Upstream {
			status = fiber.StatusServiceUnavailable
			overall = "degraded"
		}

		return c.Status(status).JSON(fiber.Map{
			"status": overall,
			"dependencies": fiber.Map{
				"cache_store": availability(h.Store),
				"weather_api": availability(h.Upstream),
			},
		})
	})
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "not_available"
}

// mapServiceError translates the service error taxonomy into HTTP statuses:
// bad input is a client error, an unresolvable city is not-found, upstream
// timeouts are gateway timeouts and other upstream failures bad gateways.
func mapServiceError(err error) *fiber.Error {
	switch {
	case errors.Is(err, weather.ErrInvalidCity):
		return fiber.NewError(fiber.StatusBadRequest, "invalid city name")
	case errors.Is(err, weather.ErrCityNotFound):
		return fiber.NewError(fiber.StatusNotFound, "city not found")
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "weather upstream timed out")
	case errors.Is(err, weather.ErrUpstreamUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, "weather upstream unavailable")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
	}
}
