// Package server wires HTTP handlers into an echo router via routing helpers.
package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupRoutes configures and returns an echo router with all application
// routes: health check, WebSocket endpoint, and the REST views.
func SetupRoutes(h *Handler, origins *originPolicy) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(h.logger))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: origins.allowOriginFunc,
	}))

	e.GET("/", h.Health)
	e.GET("/ws", h.WebSocket)

	api := e.Group("/api")
	api.GET("/messages/:room", h.Messages)
	api.GET("/users", h.Users)
	api.GET("/stats", h.Stats)

	return e
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Warn("HTTP request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			logger.Debug("HTTP request", attrs...)
			return nil
		},
	})
}
