package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

const dependencyTimeout = 2 * time.Second

type HealthResponse struct {
	Status        string            `json:"status"`
	RunInProgress bool              `json:"run_in_progress"`
	Dependencies  map[string]string `json:"dependencies,omitempty"`
}

// HealthHandler serves /health.
type HealthHandler struct {
	runs   RunController
	checks map[string]DependencyCheck
	logger *slog.Logger
}

func NewHealthHandler(runs RunController, checks map[string]DependencyCheck, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		runs:   runs,
		checks: checks,
		logger: logger,
	}
}

// CheckHealth reports 503 when any dependency check fails.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dependencyTimeout)
	defer cancel()

	resp := HealthResponse{Status: "healthy"}
	if h.runs != nil {
		resp.RunInProgress = h.runs.Busy()
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 0 {
		resp.Dependencies = make(map[string]string, len(names))
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.WarnContext(ctx, "dependency unhealthy", "dependency", name, "error", err)
			resp.Dependencies[name] = "unhealthy"
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[name] = "healthy"
	}

	if resp.Status != "healthy" {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
