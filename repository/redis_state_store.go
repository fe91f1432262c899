package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"feed-enricher/domain"

	"github.com/redis/go-redis/v9"
)

type redisStateStore struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *slog.Logger
}

// NewRedisStateStore stores each source's state as one JSON string value.
func NewRedisStateStore(client redis.UniversalClient, keyPrefix string, logger *slog.Logger) StateStore {
	return &redisStateStore{client: client, keyPrefix: keyPrefix, logger: logger}
}

func (s *redisStateStore) key(sourceID string) string {
	return s.keyPrefix + sourceID
}

func (s *redisStateStore) Load(ctx context.Context, sourceID string) (*domain.ProcessingState, error) {
	data, err := s.client.Get(ctx, s.key(sourceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.NewProcessingState(), nil
	}
	if err != nil {
		return domain.NewProcessingState(), fmt.Errorf("%w: redis get %s: %w", domain.ErrStateIO, sourceID, err)
	}

	state := domain.NewProcessingState()
	if err := json.Unmarshal(data, state); err != nil {
		return domain.NewProcessingState(), fmt.Errorf("%w: decode state %s: %w", domain.ErrStateIO, sourceID, err)
	}
	return state, nil
}

func (s *redisStateStore) Save(ctx context.Context, sourceID string, state *domain.ProcessingState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode state %s: %w", domain.ErrStateIO, sourceID, err)
	}
	if err := s.client.Set(ctx, s.key(sourceID), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: redis set %s: %w", domain.ErrStateIO, sourceID, err)
	}
	s.logger.DebugContext(ctx, "state saved", "source_id", sourceID, "processed", state.Len())
	return nil
}
