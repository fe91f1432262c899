// ABOUTME: Centralized error handling middleware for Echo framework
// ABOUTME: Maps domain and echo errors to a stable JSON shape, hides internal details
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"feed-enricher/domain"
	"feed-enricher/service"
	apperrors "feed-enricher/utils/errors"
	"feed-enricher/utils/logger"
)

// ErrorDetail is the body of an error response.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// ErrorResponse is the JSON returned for every failed request.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

const internalMessage = "An unexpected error occurred. Please try again later."

// CustomHTTPErrorHandler converts handler errors to consistent JSON responses.
func CustomHTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()
		requestID := logger.RequestIDFromContext(ctx)
		status, detail := classify(err)

		if status >= http.StatusInternalServerError {
			log.ErrorContext(ctx, "request failed",
				"request_id", requestID,
				"status", status,
				"error", err)
		} else {
			log.WarnContext(ctx, "request rejected",
				"request_id", requestID,
				"status", status,
				"error", err)
		}

		if err := c.JSON(status, ErrorResponse{Error: detail}); err != nil {
			log.ErrorContext(ctx, "failed to send error response", "request_id", requestID, "error", err)
		}
	}
}

func classify(err error) (int, ErrorDetail) {
	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, service.ErrRunInProgress):
		return http.StatusConflict, ErrorDetail{Code: "RUN_IN_PROGRESS", Message: err.Error(), Retryable: true}
	case errors.Is(err, domain.ErrUnknownSource):
		return http.StatusNotFound, ErrorDetail{Code: "UNKNOWN_SOURCE", Message: err.Error()}
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			msg = m
		}
		if httpErr.Code >= http.StatusInternalServerError {
			msg = internalMessage
		}
		return httpErr.Code, ErrorDetail{
			Code:      "HTTP_ERROR",
			Message:   msg,
			Retryable: apperrors.IsRetryableHTTPStatus(httpErr.Code),
		}
	default:
		return http.StatusInternalServerError, ErrorDetail{Code: "INTERNAL_ERROR", Message: internalMessage}
	}
}
