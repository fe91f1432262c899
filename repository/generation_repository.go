package repository

import (
	"context"
	"log/slog"
	"time"

	"feed-enricher/domain"
	"feed-enricher/driver"
	"feed-enricher/metrics"
	"feed-enricher/retry"
	"feed-enricher/utils"
	appotel "feed-enricher/utils/otel"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

// GenerationClient is a single-attempt call to the generation service.
type GenerationClient interface {
	Generate(ctx context.Context, req driver.GenerateRequest) (string, error)
}

type generationRepository struct {
	client  GenerationClient
	limiter *rate.Limiter
	breaker *utils.CircuitBreaker
	retrier *retry.Retrier
	logger  *slog.Logger
}

// NewGenerationRepository layers client-side rate limiting, a circuit breaker
// and retries over the generation client.
func NewGenerationRepository(client GenerationClient, limiter *rate.Limiter, breaker *utils.CircuitBreaker, retrier *retry.Retrier, logger *slog.Logger) Generator {
	return &generationRepository{
		client:  client,
		limiter: limiter,
		breaker: breaker,
		retrier: retrier,
		logger:  logger,
	}
}

func (r *generationRepository) Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error) {
	ctx, span := appotel.Tracer().Start(ctx, "generation.generate")
	defer span.End()

	req := driver.GenerateRequest{
		Prompt:      prompt,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	var text string
	attempts, err := r.retrier.Do(ctx, opts.MaxRetries, func(ctx context.Context, attempt int) error {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		return r.breaker.Call(ctx, func(ctx context.Context) error {
			start := time.Now()
			out, err := r.client.Generate(ctx, req)
			if err != nil {
				metrics.RecordGeneration("error", time.Since(start))
				return err
			}
			metrics.RecordGeneration("success", time.Since(start))
			text = out
			return nil
		})
	})
	span.SetAttributes(attribute.Int("generation.attempts", attempts))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		r.logger.WarnContext(ctx, "generation failed",
			"attempts", attempts,
			"error", err)
		return "", domain.NewGenerationError(err, attempts)
	}

	return text, nil
}

type disabledGenerator struct{}

// NewDisabledGenerator returns a Generator that always fails, forcing every
// stage onto its fallback.
func NewDisabledGenerator() Generator {
	return disabledGenerator{}
}

func (disabledGenerator) Generate(context.Context, string, domain.GenerationOptions) (string, error) {
	return "", domain.NewGenerationError(domain.ErrGenerationDisabled, 0)
}
