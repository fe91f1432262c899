package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feed-enricher/domain"
)

const sqliteStateSchema = `
CREATE TABLE IF NOT EXISTS processing_state (
	source_id  TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	updated_at TEXT NOT NULL
)`

type sqliteStateStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStateStore keeps every source's state in one SQLite table.
func NewSQLiteStateStore(ctx context.Context, db *sql.DB, logger *slog.Logger) (StateStore, error) {
	if _, err := db.ExecContext(ctx, sqliteStateSchema); err != nil {
		return nil, fmt.Errorf("%w: create schema: %w", domain.ErrStateIO, err)
	}
	return &sqliteStateStore{db: db, logger: logger}, nil
}

func (s *sqliteStateStore) Load(ctx context.Context, sourceID string) (*domain.ProcessingState, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM processing_state WHERE source_id = ?", sourceID).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewProcessingState(), nil
	}
	if err != nil {
		return domain.NewProcessingState(), fmt.Errorf("%w: query state %s: %w", domain.ErrStateIO, sourceID, err)
	}

	state := domain.NewProcessingState()
	if err := json.Unmarshal([]byte(document), state); err != nil {
		return domain.NewProcessingState(), fmt.Errorf("%w: decode state %s: %w", domain.ErrStateIO, sourceID, err)
	}
	return state, nil
}

func (s *sqliteStateStore) Save(ctx context.Context, sourceID string, state *domain.ProcessingState) error {
	document, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode state %s: %w", domain.ErrStateIO, sourceID, err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO processing_state (source_id, document, updated_at) VALUES (?, ?, ?)
ON CONFLICT(source_id) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		sourceID, string(document), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("%w: upsert state %s: %w", domain.ErrStateIO, sourceID, err)
	}
	return nil
}
