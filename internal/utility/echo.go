package utility

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewEcho returns an echo instance with the middleware stack shared by the API
// and the relay.
func NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"https://*", "http://*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:       300,
	}))

	e.Use(LoggerMiddleware)
	return e
}

// LoggerMiddleware attaches a request id and a request-scoped logger to the context.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().
			Str("request_id", requestID).
			Str("ip", GetRealIP(c)).
			Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}

// RequestLogger returns the logger set by LoggerMiddleware, falling back to the global one.
func RequestLogger(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get("logger").(*zerolog.Logger); ok {
		return l
	}
	return &log.Logger
}
