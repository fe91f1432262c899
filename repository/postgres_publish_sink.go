package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"feed-enricher/domain"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PgxBeginner is the subset of *pgxpool.Pool the sink needs.
type PgxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgxExecer runs schema statements.
type PgxExecer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

var recordColumns = []string{
	"source_url", "source_id", "section_id", "section_label", "title", "overline",
	"excerpt", "body", "tags", "social_text", "status", "images", "created_at",
}

// publishTableDDL creates the sink table. The primary key on source_url backs the upsert.
const publishTableDDL = `CREATE TABLE IF NOT EXISTS %s (
	source_url    TEXT PRIMARY KEY,
	source_id     TEXT NOT NULL,
	section_id    TEXT NOT NULL,
	section_label TEXT NOT NULL,
	title         TEXT NOT NULL,
	overline      TEXT NOT NULL DEFAULT '',
	excerpt       TEXT NOT NULL DEFAULT '',
	body          TEXT NOT NULL,
	tags          TEXT NOT NULL DEFAULT '',
	social_text   TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	images        JSONB NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL
)`

// EnsurePublishTable creates the sink table when it does not exist yet.
func EnsurePublishTable(ctx context.Context, db PgxExecer, table string) error {
	if _, err := db.Exec(ctx, fmt.Sprintf(publishTableDDL, table)); err != nil {
		return fmt.Errorf("create publish table %s: %w", table, err)
	}
	return nil
}

var upsertSuffix = "ON CONFLICT (source_url) DO UPDATE SET " + excludedAssignments(recordColumns[1:])

func excludedAssignments(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = c + " = EXCLUDED." + c
	}
	return strings.Join(parts, ", ")
}

type postgresPublishSink struct {
	db     PgxBeginner
	table  string
	logger *slog.Logger
}

// NewPostgresPublishSink upserts records into table keyed by source_url, so a
// forced reprocess replaces the stored draft and a republish after a crash is harmless.
func NewPostgresPublishSink(db PgxBeginner, table string, logger *slog.Logger) PublishSink {
	return &postgresPublishSink{db: db, table: table, logger: logger}
}

func (s *postgresPublishSink) Name() string { return "postgres" }

func (s *postgresPublishSink) Publish(ctx context.Context, sectionID string, records []*domain.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Insert(s.table).
		Columns(recordColumns...).
		Suffix(upsertSuffix)

	for _, record := range latestPerURL(records) {
		images, err := json.Marshal(record.Images)
		if err != nil {
			return fmt.Errorf("%w: encode images: %w", domain.ErrPublishFailure, err)
		}
		builder = builder.Values(
			record.SourceURL, record.SourceID, sectionID, record.SectionLabel, record.Title, record.Overline,
			record.Excerpt, record.Body, record.Tags, record.SocialText, record.Status, string(images), record.CreatedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: build insert: %w", domain.ErrPublishFailure, err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", domain.ErrPublishFailure, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.WarnContext(ctx, "rollback failed", "error", rbErr)
		}
		return fmt.Errorf("%w: insert: %w", domain.ErrPublishFailure, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", domain.ErrPublishFailure, err)
	}

	s.logger.InfoContext(ctx, "records published",
		"sink", s.Name(),
		"section_id", sectionID,
		"records", len(records),
		"upserted", tag.RowsAffected())
	return nil
}

// latestPerURL keeps the last record for each source_url, since one upsert
// statement may not touch the same row twice.
func latestPerURL(records []*domain.EnrichedRecord) []*domain.EnrichedRecord {
	index := make(map[string]int, len(records))
	out := make([]*domain.EnrichedRecord, 0, len(records))
	for _, record := range records {
		if i, ok := index[record.SourceURL]; ok {
			out[i] = record
			continue
		}
		index[record.SourceURL] = len(out)
		out = append(out, record)
	}
	return out
}
