package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Request().Header.Set(requestIDHeader, requestID)
		c.Response().Header().Set(requestIDHeader, requestID)
		c.Set(requestIDHeader, requestID)

		return next(c)
	}
}
