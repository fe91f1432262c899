package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"feed-enricher/service"
)

// RunRequest is the optional body of POST /api/v1/runs.
type RunRequest struct {
	Limit int  `json:"limit"`
	Force bool `json:"force"`
}

type RunAccepted struct {
	Status string `json:"status"`
}

// RunHandler triggers asynchronous runs and exposes the last summary.
type RunHandler struct {
	runs   RunController
	logger *slog.Logger
}

func NewRunHandler(runs RunController, logger *slog.Logger) *RunHandler {
	return &RunHandler{runs: runs, logger: logger}
}

// HandleTrigger handles POST /api/v1/runs. A busy runner yields 409 through the error handler.
func (h *RunHandler) HandleTrigger(c echo.Context) error {
	var req RunRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
		}
	}
	if req.Limit < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must not be negative")
	}

	if err := h.runs.Trigger(service.RunOptions{Limit: req.Limit, Force: req.Force}); err != nil {
		return err
	}

	h.logger.InfoContext(c.Request().Context(), "run triggered", "limit", req.Limit, "force", req.Force)
	return c.JSON(http.StatusAccepted, RunAccepted{Status: "accepted"})
}

// HandleLast handles GET /api/v1/runs/last.
func (h *RunHandler) HandleLast(c echo.Context) error {
	summary := h.runs.LastSummary()
	if summary == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no run has finished yet")
	}
	return c.JSON(http.StatusOK, summary)
}
