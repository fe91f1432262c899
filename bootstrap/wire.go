package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"feed-enricher/config"
	"feed-enricher/dlq"
	"feed-enricher/domain"
	"feed-enricher/driver"
	"feed-enricher/fallback"
	"feed-enricher/handler"
	"feed-enricher/metrics"
	"feed-enricher/orchestrator"
	"feed-enricher/ratelimit"
	"feed-enricher/repository"
	"feed-enricher/retry"
	"feed-enricher/service"
	"feed-enricher/utils"
	apperrors "feed-enricher/utils/errors"
	"feed-enricher/utils/html_parser"
)

const statusConcurrency = 4

// BuildOptions adjusts wiring per command.
type BuildOptions struct {
	DryRun bool // publish to the log sink instead of the configured backend
}

// Dependencies holds all application dependencies.
type Dependencies struct {
	Config       *config.Config
	Catalog      *config.SourceCatalog
	StateStore   repository.StateStore
	Scheduler    *service.BatchScheduler
	Journal      *dlq.FileDLQManager
	HealthChecks map[string]handler.DependencyCheck
	Logger       *slog.Logger
}

// BuildDependencies constructs the full pipeline. The returned cleanup closes
// every opened connection and should be deferred.
func BuildDependencies(ctx context.Context, cfg *config.Config, catalog *config.SourceCatalog, log *slog.Logger, opts BuildOptions) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	checks := make(map[string]handler.DependencyCheck)

	stateStore, closeState, err := BuildStateStore(ctx, cfg.State, checks, log)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, closeState)

	clients := utils.NewHTTPClients(cfg.Fetch.Timeout, cfg.Sink.Timeout)

	sink, closeSink, err := buildSink(ctx, cfg.Sink, clients, checks, opts.DryRun, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	closers = append(closers, closeSink)

	fetcher := driver.NewHTTPFetcher(clients.Fetch, driver.FetcherConfig{
		UserAgent:     cfg.Fetch.UserAgent,
		MaxBodyBytes:  cfg.Fetch.MaxBodyBytes,
		RespectRobots: cfg.Fetch.RespectRobots,
	}, ratelimit.NewHostLimiter(cfg.Fetch.HostInterval, 1), log)

	enricher := service.NewEnrichmentService(
		buildGenerator(cfg.Generation, cfg.Retry, clients, log),
		repository.NewPageRepository(fetcher, log),
		fallback.New(),
		html_parser.Extract,
		catalog,
		service.EnrichmentConfig{
			MinContentLength: cfg.Scheduler.MinContentLength,
			SocialEnabled:    cfg.Generation.SocialEnabled,
			Options:          domain.GenerationOptions{
				MaxRetries:  cfg.Generation.MaxRetries,
				Temperature: cfg.Generation.Temperature,
				MaxTokens:   cfg.Generation.MaxTokens,
			},
		},
		log,
	)

	schedulerOpts := []service.SchedulerOption{}
	var journal *dlq.FileDLQManager
	if cfg.DLQ.Enabled && !opts.DryRun {
		journal = dlq.NewFileDLQManager(dlq.FileDLQConfig{BasePath: cfg.DLQ.Dir, Retention: cfg.DLQ.Retention}, log)
		schedulerOpts = append(schedulerOpts, service.WithFailureJournal(journal))
	}

	scheduler := service.NewBatchScheduler(
		repository.NewFeedRepository(fetcher, log),
		stateStore,
		sink,
		enricher,
		service.SchedulerConfig{
			ItemDelay:   cfg.Scheduler.ItemDelay,
			BatchDelay:  cfg.Scheduler.BatchDelay,
			SourceDelay: cfg.Scheduler.SourceDelay,
			BatchSize:   cfg.Scheduler.BatchSize,
		},
		log,
		schedulerOpts...,
	)

	return &Dependencies{
		Config:       cfg,
		Catalog:      catalog,
		StateStore:   stateStore,
		Scheduler:    scheduler,
		Journal:      journal,
		HealthChecks: checks,
		Logger:       log,
	}, cleanup, nil
}

// Status implements handler.StatusProvider.
func (d *Dependencies) Status(ctx context.Context) []orchestrator.SourceStatus {
	return orchestrator.CollectStatus(ctx, d.Catalog.Sources(), d.StateStore, d.Catalog, statusConcurrency)
}

// BuildStateStore opens the configured dedup state backend.
func BuildStateStore(ctx context.Context, cfg config.StateConfig, checks map[string]handler.DependencyCheck, log *slog.Logger) (repository.StateStore, func(), error) {
	switch cfg.Backend {
	case "redis":
		client, err := driver.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		if checks != nil {
			checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
		return repository.NewRedisStateStore(client, cfg.RedisKeyPrefix, log), func() { _ = client.Close() }, nil

	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		db, err := driver.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store, err := repository.NewSQLiteStateStore(ctx, db, log)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if checks != nil {
			checks["sqlite"] = db.PingContext
		}
		return store, func() { _ = db.Close() }, nil

	case "file", "":
		store, err := repository.NewFileStateStore(cfg.Dir, log)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}

func buildSink(ctx context.Context, cfg config.SinkConfig, clients *utils.HTTPClients, checks map[string]handler.DependencyCheck, dryRun bool, log *slog.Logger) (repository.PublishSink, func(), error) {
	if dryRun {
		return repository.NewLogPublishSink(log), func() {}, nil
	}

	switch cfg.Backend {
	case "postgres":
		pool, err := driver.OpenPostgres(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.EnsurePublishTable(ctx, pool, cfg.Table); err != nil {
			pool.Close()
			return nil, nil, err
		}
		checks["postgres"] = pool.Ping
		return repository.NewPostgresPublishSink(pool, cfg.Table, log), pool.Close, nil

	case "api":
		if cfg.APIURL == "" {
			return nil, nil, errors.New("sink api url is required for the api backend")
		}
		limiter := ratelimit.NewRequestLimiter(cfg.RequestsPerSecond)
		return repository.NewRecordAPISink(clients.Sink, cfg.APIURL, cfg.APIToken, limiter, log), func() {}, nil

	default:
		return repository.NewLogPublishSink(log), func() {}, nil
	}
}

func buildGenerator(cfg config.GenerationConfig, retryCfg config.RetryConfig, clients *utils.HTTPClients, log *slog.Logger) repository.Generator {
	if !cfg.Enabled {
		log.Info("generation disabled, every stage uses its fallback")
		return repository.NewDisabledGenerator()
	}

	client := driver.NewGenerationAPI(clients.Generation, driver.GenerationAPIConfig{
		Host:    cfg.Host,
		APIPath: cfg.APIPath,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}, log)

	breaker := utils.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout,
		utils.WithStateChange(func(from, to utils.CircuitBreakerState) {
			metrics.SetCircuitState(int(to))
			log.Warn("generation circuit breaker state changed", "from", from.String(), "to", to.String())
		}))

	retrier := retry.NewRetrier(retry.Policy{
		BaseDelay:     retryCfg.BaseDelay,
		MaxDelay:      retryCfg.MaxDelay,
		BackoffFactor: retryCfg.BackoffFactor,
		JitterFactor:  retryCfg.JitterFactor,
	}, apperrors.IsRetryable, log)

	return repository.NewGenerationRepository(client, ratelimit.NewRequestLimiter(cfg.RequestsPerSecond), breaker, retrier, log)
}
