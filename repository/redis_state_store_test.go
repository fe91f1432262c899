package repository

import (
	"context"
	"testing"
	"time"

	"feed-enricher/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisStore(t *testing.T) (StateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStateStore(client, "test:state:", testLogger()), mr
}

func TestRedisStateStore_RoundTrip(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	state := domain.NewProcessingState()
	state.Mark("https://example.com/1")
	state.LastRun = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Save(ctx, "tech", state))

	raw, err := mr.Get("test:state:tech")
	require.NoError(t, err)
	assert.JSONEq(t, `{"processedUrls":["https://example.com/1"],"lastRun":"2026-01-02T03:04:05Z"}`, raw)

	loaded, err := store.Load(ctx, "tech")
	require.NoError(t, err)
	assert.True(t, loaded.Has("https://example.com/1"))
}

func TestRedisStateStore_MissingKey(t *testing.T) {
	store, _ := newMiniredisStore(t)

	state, err := store.Load(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Equal(t, 0, state.Len())
}

func TestRedisStateStore_ServerDown(t *testing.T) {
	store, mr := newMiniredisStore(t)
	mr.Close()

	err := store.Save(context.Background(), "tech", domain.NewProcessingState())
	assert.ErrorIs(t, err, domain.ErrStateIO)

	state, err := store.Load(context.Background(), "tech")
	assert.ErrorIs(t, err, domain.ErrStateIO)
	assert.NotNil(t, state)
}
