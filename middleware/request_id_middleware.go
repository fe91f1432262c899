package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"feed-enricher/utils/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware propagates or generates a request id and stores it in the request context.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}

			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), requestID)))
			c.Response().Header().Set(requestIDHeader, requestID)

			return next(c)
		}
	}
}
