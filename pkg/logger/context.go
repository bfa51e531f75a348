package logger

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// FromContext retrieves the request-scoped logger from echo.Context. Requests
// that skipped the request ID middleware fall back to the global logger,
// tagged with whatever request ID the client supplied.
func FromContext(c echo.Context) *zap.Logger {
	if log, ok := c.Get("logger").(*zap.Logger); ok {
		return log
	}

	requestID, ok := c.Get("request_id").(string)
	if !ok {
		requestID = c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = "unknown"
		}
	}

	return GetLogger().With(zap.String("request_id", requestID))
}
