package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestObserver recibe una observación por petición atendida.
type RequestObserver interface {
	Observe(method, route string, status int, elapsed time.Duration)
}

// MetricsMiddleware registra método, ruta (plantilla, no path concreto) y status de cada petición.
func MetricsMiddleware(obs RequestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		route := c.Route().Path
		if route == "" || route == "/" {
			route = "unmatched"
		}
		obs.Observe(c.Method(), route, status, time.Since(start))
		return err
	}
}
