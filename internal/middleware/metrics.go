package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics registers the HTTP metrics collectors and exposes them on
// /metrics. Collectors are registered once per process.
func InitMetrics(app *fiber.App, serviceName string) {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	prom.RegisterAt(app, "/metrics")
}

// MetricsMiddleware records request counts and latencies. InitMetrics must be
// called first.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if prom == nil {
			return c.Next()
		}
		return prom.Middleware(c)
	}
}
