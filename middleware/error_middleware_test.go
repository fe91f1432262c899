// ABOUTME: Tests for centralized error handling middleware
// ABOUTME: Verifies status mapping and that internal details never reach the client
package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-enricher/domain"
	"feed-enricher/service"
	"feed-enricher/utils/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestCustomHTTPErrorHandler(t *testing.T) {
	tests := map[string]struct {
		err            error
		expectedStatus int
		expectedCode   string
		retryable      bool
		hiddenMessage  string
	}{
		"run in progress": {
			err:            service.ErrRunInProgress,
			expectedStatus: http.StatusConflict,
			expectedCode:   "RUN_IN_PROGRESS",
			retryable:      true,
		},
		"unknown source": {
			err:            fmt.Errorf("source %q: %w", "nope", domain.ErrUnknownSource),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "UNKNOWN_SOURCE",
		},
		"echo client error keeps message": {
			err:            echo.NewHTTPError(http.StatusBadRequest, "limit must be positive"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "HTTP_ERROR",
		},
		"echo server error hides message": {
			err:            echo.NewHTTPError(http.StatusServiceUnavailable, "redis down at 10.0.0.3"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   "HTTP_ERROR",
			retryable:      true,
			hiddenMessage:  "redis down at 10.0.0.3",
		},
		"unknown error": {
			err:            errors.New("pgx: connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL_ERROR",
			hiddenMessage:  "pgx: connection refused",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = CustomHTTPErrorHandler(testLogger())
			e.GET("/x", func(echo.Context) error { return tc.err })

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tc.expectedStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.expectedCode, body.Error.Code)
			assert.Equal(t, tc.retryable, body.Error.Retryable)
			assert.NotEmpty(t, body.Error.Message)
			if tc.hiddenMessage != "" {
				assert.NotContains(t, body.Error.Message, tc.hiddenMessage)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := map[string]struct {
		header string
	}{
		"propagates incoming id": {header: "req-123"},
		"generates missing id":   {},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			e.Use(RequestIDMiddleware())

			var seen string
			e.GET("/x", func(c echo.Context) error {
				seen = logger.RequestIDFromContext(c.Request().Context())
				return c.NoContent(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set(requestIDHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			got := rec.Header().Get(requestIDHeader)
			require.NotEmpty(t, got)
			assert.Equal(t, got, seen)
			if tc.header != "" {
				assert.Equal(t, tc.header, got)
			}
		})
	}
}
