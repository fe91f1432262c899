package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SourcesHandler serves the per-source state summary.
type SourcesHandler struct {
	status StatusProvider
}

func NewSourcesHandler(status StatusProvider) *SourcesHandler {
	return &SourcesHandler{status: status}
}

// HandleList handles GET /api/v1/sources.
func (h *SourcesHandler) HandleList(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status.Status(c.Request().Context()))
}
