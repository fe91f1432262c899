// ABOUTME: This file implements exponential backoff retry with jitter
// ABOUTME: Callers pass the retry budget per call; waits are cancellable through the context
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Policy shapes the backoff between attempts.
type Policy struct {
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// ErrorClassifier reports whether an error is worth another attempt.
type ErrorClassifier func(error) bool

// Operation is one attempt. attempt starts at 1.
type Operation func(ctx context.Context, attempt int) error

type Retrier struct {
	policy      Policy
	isRetryable ErrorClassifier
	logger      *slog.Logger
	wait        func(ctx context.Context, d time.Duration) error
}

func NewRetrier(policy Policy, classifier ErrorClassifier, logger *slog.Logger) *Retrier {
	return &Retrier{
		policy:      policy,
		isRetryable: classifier,
		logger:      logger,
		wait:        sleepContext,
	}
}

// Do runs op once and then up to maxRetries more times while the error stays retryable.
// It returns the number of attempts made and the last error.
func (r *Retrier) Do(ctx context.Context, maxRetries int, op Operation) (int, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	maxAttempts := maxRetries + 1

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attemptStart := time.Now()
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			if attempt > 1 {
				r.logger.InfoContext(ctx, "operation succeeded after retry", "attempt", attempt)
			}
			return attempt, nil
		}

		retryable := r.isRetryable != nil && r.isRetryable(lastErr)
		r.logger.WarnContext(ctx, "operation attempt failed",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", lastErr,
			"retryable", retryable,
			"attempt_duration_ms", time.Since(attemptStart).Milliseconds())

		if attempt == maxAttempts || !retryable {
			return attempt, lastErr
		}

		delay := r.Backoff(attempt)
		if err := r.wait(ctx, delay); err != nil {
			return attempt, fmt.Errorf("retry cancelled: %w", err)
		}
	}

	return maxAttempts, lastErr
}

// Backoff returns the jittered wait after the given attempt.
func (r *Retrier) Backoff(attempt int) time.Duration {
	delay := float64(r.policy.BaseDelay) * math.Pow(r.policy.BackoffFactor, float64(attempt-1))
	if r.policy.MaxDelay > 0 && delay > float64(r.policy.MaxDelay) {
		delay = float64(r.policy.MaxDelay)
	}

	jitter := 1.0 + (rand.Float64()-0.5)*r.policy.JitterFactor
	return time.Duration(delay * jitter)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
