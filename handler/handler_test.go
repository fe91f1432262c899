package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"feed-enricher/handler"
	"feed-enricher/middleware"
	"feed-enricher/orchestrator"
	"feed-enricher/service"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeRuns struct {
	busy      bool
	triggered []service.RunOptions
	last      *service.RunSummary
}

func (f *fakeRuns) Trigger(opts service.RunOptions) error {
	if f.busy {
		return service.ErrRunInProgress
	}
	f.triggered = append(f.triggered, opts)
	return nil
}

func (f *fakeRuns) Busy() bool                       { return f.busy }
func (f *fakeRuns) LastSummary() *service.RunSummary { return f.last }

type fakeStatus []orchestrator.SourceStatus

func (f fakeStatus) Status(context.Context) []orchestrator.SourceStatus { return f }

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler(testLogger())
	return e
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRunHandler_HandleTrigger(t *testing.T) {
	tests := map[string]struct {
		busy         bool
		body         string
		expectedCode int
		expectedOpts []service.RunOptions
	}{
		"accepts empty body": {
			expectedCode: http.StatusAccepted,
			expectedOpts: []service.RunOptions{{}},
		},
		"passes limit and force": {
			body:         `{"limit": 5, "force": true}`,
			expectedCode: http.StatusAccepted,
			expectedOpts: []service.RunOptions{{Limit: 5, Force: true}},
		},
		"rejects negative limit": {
			body:         `{"limit": -1}`,
			expectedCode: http.StatusBadRequest,
		},
		"rejects malformed body": {
			body:         `{"limit":`,
			expectedCode: http.StatusBadRequest,
		},
		"conflict while running": {
			busy:         true,
			expectedCode: http.StatusConflict,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			runs := &fakeRuns{busy: tc.busy}
			e := newEcho()
			e.POST("/api/v1/runs", handler.NewRunHandler(runs, testLogger()).HandleTrigger)

			rec := serve(e, http.MethodPost, "/api/v1/runs", tc.body)

			assert.Equal(t, tc.expectedCode, rec.Code)
			assert.Equal(t, tc.expectedOpts, runs.triggered)
		})
	}
}

func TestRunHandler_HandleLast(t *testing.T) {
	runs := &fakeRuns{}
	e := newEcho()
	e.GET("/api/v1/runs/last", handler.NewRunHandler(runs, testLogger()).HandleLast)

	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/api/v1/runs/last", "").Code)

	runs.last = &service.RunSummary{RunID: "abc", Sources: []service.SourceSummary{{SourceID: "city", Published: 2}}}
	rec := serve(e, http.MethodGet, "/api/v1/runs/last", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary service.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "abc", summary.RunID)
	assert.Equal(t, 2, summary.Published())
}

func TestSourcesHandler_HandleList(t *testing.T) {
	lastRun := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	e := newEcho()
	e.GET("/api/v1/sources", handler.NewSourcesHandler(fakeStatus{
		{SourceID: "city", SectionLabel: "Local News", Processed: 12, LastRun: lastRun},
	}).HandleList)

	rec := serve(e, http.MethodGet, "/api/v1/sources", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var statuses []orchestrator.SourceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, 12, statuses[0].Processed)
	assert.True(t, lastRun.Equal(statuses[0].LastRun))
}

func TestHealthHandler_CheckHealth(t *testing.T) {
	tests := map[string]struct {
		checks       map[string]handler.DependencyCheck
		busy         bool
		expectedCode int
		expected     handler.HealthResponse
	}{
		"no dependencies": {
			expectedCode: http.StatusOK,
			expected:     handler.HealthResponse{Status: "healthy"},
		},
		"healthy dependency while running": {
			checks:       map[string]handler.DependencyCheck{"redis": func(context.Context) error { return nil }},
			busy:         true,
			expectedCode: http.StatusOK,
			expected: handler.HealthResponse{
				Status:        "healthy",
				RunInProgress: true,
				Dependencies:  map[string]string{"redis": "healthy"},
			},
		},
		"failing dependency": {
			checks: map[string]handler.DependencyCheck{
				"redis":    func(context.Context) error { return nil },
				"postgres": func(context.Context) error { return errors.New("refused") },
			},
			expectedCode: http.StatusServiceUnavailable,
			expected: handler.HealthResponse{
				Status:       "degraded",
				Dependencies: map[string]string{"redis": "healthy", "postgres": "unhealthy"},
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			e := newEcho()
			e.GET("/health", handler.NewHealthHandler(&fakeRuns{busy: tc.busy}, tc.checks, testLogger()).CheckHealth)

			rec := serve(e, http.MethodGet, "/health", "")
			assert.Equal(t, tc.expectedCode, rec.Code)

			var resp handler.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.expected, resp)
		})
	}
}
