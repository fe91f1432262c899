package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"feed-enricher/config"
	"feed-enricher/handler"
	appmiddleware "feed-enricher/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// NewHTTPServer creates the serve-mode Echo server.
func NewHTTPServer(cfg *config.Config, runs handler.RunController, status handler.StatusProvider, checks map[string]handler.DependencyCheck, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.HTTPErrorHandler = appmiddleware.CustomHTTPErrorHandler(log)

	if cfg.OTel.Enabled {
		e.Use(otelecho.Middleware(cfg.Logging.ServiceName))
		e.Use(appmiddleware.OTelStatusMiddleware())
	}

	e.Use(appmiddleware.RequestIDMiddleware())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == cfg.Metrics.Path
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.InfoContext(c.Request().Context(), "http request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	healthHandler := handler.NewHealthHandler(runs, checks, log)
	runHandler := handler.NewRunHandler(runs, log)
	sourcesHandler := handler.NewSourcesHandler(status)

	e.GET("/health", healthHandler.CheckHealth)
	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.Handler()))
	}

	api := e.Group("/api/v1")
	api.POST("/runs", runHandler.HandleTrigger)
	api.GET("/runs/last", runHandler.HandleLast)
	api.GET("/sources", sourcesHandler.HandleList)

	return e
}

// ListenAddr returns the address the HTTP server binds to.
func ListenAddr(cfg *config.Config) string {
	return fmt.Sprintf(":%d", cfg.Server.Port)
}

func isServerClosed(err error) bool {
	return err == nil || errors.Is(err, http.ErrServerClosed)
}
