package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs every request with method, path, status and duration.
func RequestLogger() fiber.Handler {
	logger := slog.Default()
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"took", time.Since(start),
		)
		return err
	}
}
