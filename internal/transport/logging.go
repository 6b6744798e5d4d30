package transport

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger is satisfied by *slog.Logger.
type RequestLogger interface {
	Info(msg string, args ...any)
}

var _ RequestLogger = (*slog.Logger)(nil)

// requestLogging logs method, path, status, and latency. Bodies are never
// logged on either direction; both carry PII.
func requestLogging(logger RequestLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("request",
				"method", c.Request().Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"duration", time.Since(start),
			)
			return err
		}
	}
}
