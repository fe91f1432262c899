package repository

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"feed-enricher/domain"
	"feed-enricher/driver"
	"feed-enricher/ratelimit"
	"feed-enricher/retry"
	"feed-enricher/utils"
	apperrors "feed-enricher/utils/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type scriptedClient struct {
	responses []error
	text      string
	calls     int
	prompts   []string
}

func (c *scriptedClient) Generate(_ context.Context, req driver.GenerateRequest) (string, error) {
	c.calls++
	c.prompts = append(c.prompts, req.Prompt)
	if c.calls <= len(c.responses) && c.responses[c.calls-1] != nil {
		return "", c.responses[c.calls-1]
	}
	return c.text, nil
}

func newTestGenerationRepository(client GenerationClient, breaker *utils.CircuitBreaker) Generator {
	retrier := retry.NewRetrier(retry.Policy{
		BaseDelay:     time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2,
	}, apperrors.IsRetryable, testLogger())
	return NewGenerationRepository(client, ratelimit.NewRequestLimiter(0), breaker, retrier, testLogger())
}

func TestGenerationRepository_Generate(t *testing.T) {
	serverError := &apperrors.HTTPStatusError{StatusCode: 503}

	tests := map[string]struct {
		responses    []error
		maxRetries   int
		wantErr      bool
		wantAttempts int
		wantCalls    int
	}{
		"first attempt succeeds": {
			maxRetries: 2,
			wantCalls:  1,
		},
		"transient failure then success": {
			responses:  []error{serverError},
			maxRetries: 2,
			wantCalls:  2,
		},
		"retries exhausted": {
			responses:    []error{serverError, serverError, serverError},
			maxRetries:   2,
			wantErr:      true,
			wantAttempts: 3,
			wantCalls:    3,
		},
		"non-transient failure is not retried": {
			responses:    []error{driver.ErrEmptyResponse},
			maxRetries:   2,
			wantErr:      true,
			wantAttempts: 1,
			wantCalls:    1,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			client := &scriptedClient{responses: tc.responses, text: "generated"}
			repo := newTestGenerationRepository(client, utils.NewCircuitBreaker(0, time.Minute))

			text, err := repo.Generate(context.Background(), "prompt", domain.GenerationOptions{MaxRetries: tc.maxRetries})

			assert.Equal(t, tc.wantCalls, client.calls)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrGenerationFailure)
				var genErr *domain.GenerationError
				require.True(t, errors.As(err, &genErr))
				assert.Equal(t, tc.wantAttempts, genErr.Attempts)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "generated", text)
		})
	}
}

func TestGenerationRepository_OpenCircuitFailsFast(t *testing.T) {
	serverError := &apperrors.HTTPStatusError{StatusCode: 500}
	client := &scriptedClient{responses: []error{serverError, serverError, serverError, serverError}}
	breaker := utils.NewCircuitBreaker(2, time.Hour)
	repo := newTestGenerationRepository(client, breaker)

	_, err := repo.Generate(context.Background(), "p", domain.GenerationOptions{MaxRetries: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCircuitOpen)
	assert.Equal(t, 2, client.calls)

	_, err = repo.Generate(context.Background(), "p", domain.GenerationOptions{MaxRetries: 3})
	assert.ErrorIs(t, err, domain.ErrCircuitOpen)
	assert.Equal(t, 2, client.calls)
}

func TestDisabledGenerator(t *testing.T) {
	_, err := NewDisabledGenerator().Generate(context.Background(), "p", domain.GenerationOptions{})
	assert.ErrorIs(t, err, domain.ErrGenerationFailure)
	assert.ErrorIs(t, err, domain.ErrGenerationDisabled)
}
