package repository

import (
	"context"
	"log/slog"

	"feed-enricher/domain"
)

type logPublishSink struct {
	logger *slog.Logger
}

// NewLogPublishSink only logs records. Used for dry runs and local development.
func NewLogPublishSink(logger *slog.Logger) PublishSink {
	return &logPublishSink{logger: logger}
}

func (s *logPublishSink) Name() string { return "log" }

func (s *logPublishSink) Publish(ctx context.Context, sectionID string, records []*domain.EnrichedRecord) error {
	for _, r := range records {
		s.logger.InfoContext(ctx, "record ready",
			"sink", s.Name(),
			"section_id", sectionID,
			"source_url", r.SourceURL,
			"title", r.Title,
			"category", r.Overline,
			"tags", r.Tags,
			"body_chars", len(r.Body),
			"images", len(r.Images))
	}
	return nil
}
