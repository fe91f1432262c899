package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feed-enricher/config"
	"feed-enricher/orchestrator"
	"feed-enricher/service"
	"feed-enricher/utils/logger"
	"feed-enricher/utils/otel"

	"golang.org/x/sync/errgroup"
)

const telemetryShutdownTimeout = 5 * time.Second

// InitTelemetry installs the OTel providers and builds the service logger.
// A provider failure is reported on the returned logger and telemetry stays off.
func InitTelemetry(ctx context.Context, cfg *config.Config, output io.Writer) (*slog.Logger, func()) {
	otelCfg := otel.Config{
		ServiceName:    cfg.Logging.ServiceName,
		ServiceVersion: cfg.OTel.ServiceVersion,
		Environment:    cfg.OTel.Environment,
		OTLPEndpoint:   cfg.OTel.Endpoint,
		Enabled:        cfg.OTel.Enabled,
		SampleRatio:    1.0,
	}

	shutdown, initErr := otel.InitProvider(ctx, otelCfg)
	if initErr != nil {
		otelCfg.Enabled = false
		shutdown = func(context.Context) error { return nil }
	}

	log := logger.New(output, logger.Config{
		Level:       cfg.Logging.Level,
		ServiceName: cfg.Logging.ServiceName,
		Version:     cfg.OTel.ServiceVersion,
		EnableOTel:  otelCfg.Enabled,
	})
	if initErr != nil {
		log.Warn("failed to initialize OpenTelemetry, continuing without it", "error", initErr)
	}

	return log, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown OpenTelemetry", "error", err)
		}
	}
}

// Serve runs the HTTP surface and the periodic runner until SIGINT or SIGTERM.
func Serve(ctx context.Context, deps *Dependencies) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := deps.Config
	log := deps.Logger
	sources := deps.Catalog.Sources()

	runner := orchestrator.NewRunner(orchestrator.RunnerConfig{
		Interval:       cfg.Scheduler.Interval,
		RunImmediately: true,
	}, func(ctx context.Context, opts service.RunOptions) (*service.RunSummary, error) {
		return deps.Scheduler.Run(ctx, sources, opts)
	}, log)

	server := NewHTTPServer(cfg, runner, deps, deps.HealthChecks, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", ListenAddr(cfg))
		if err := server.Start(ListenAddr(cfg)); !isServerClosed(err) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		runner.Start(gctx)
		<-gctx.Done()
		runner.Stop()
		return nil
	})

	if deps.Journal != nil {
		g.Go(func() error {
			deps.Journal.StartCleanup(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down feed-enricher")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	log.Info("feed-enricher serving",
		"sources", len(sources),
		"interval", cfg.Scheduler.Interval.String(),
		"metrics_path", cfg.Metrics.Path)

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("feed-enricher stopped")
	return nil
}
