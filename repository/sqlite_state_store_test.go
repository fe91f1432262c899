package repository

import (
	"context"
	"path/filepath"
	"testing"

	"feed-enricher/domain"
	"feed-enricher/driver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) StateStore {
	t.Helper()
	db, err := driver.OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLiteStateStore(context.Background(), db, testLogger())
	require.NoError(t, err)
	return store
}

func TestSQLiteStateStore_RoundTripAndOverwrite(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	empty, err := store.Load(ctx, "src")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	state := domain.NewProcessingState()
	state.Mark("a")
	require.NoError(t, store.Save(ctx, "src", state))

	state.Mark("b")
	require.NoError(t, store.Save(ctx, "src", state))

	loaded, err := store.Load(ctx, "src")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, loaded.Keys())
}

func TestSQLiteStateStore_SourcesIsolated(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	one := domain.NewProcessingState()
	one.Mark("x")
	require.NoError(t, store.Save(ctx, "one", one))

	other, err := store.Load(ctx, "two")
	require.NoError(t, err)
	assert.False(t, other.Has("x"))
}
