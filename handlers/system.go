package handlers

import (
	"bonus-hunt-service/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type StreamStatusSource interface {
	Status() workers.StreamStatus
}

// SetupSystemRoutes registers health, stream status and Prometheus metrics.
func SetupSystemRoutes(app fiber.Router, stream StreamStatusSource, registry *prometheus.Registry, scraperAuth fiber.Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/stream/status", func(c *fiber.Ctx) error {
		return c.JSON(stream.Status())
	})

	app.Get("/metrics", scraperAuth, adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}
