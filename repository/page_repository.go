package repository

import (
	"context"
	"fmt"
	"log/slog"

	"feed-enricher/domain"
	"feed-enricher/driver"
)

type pageRepository struct {
	fetcher DocumentFetcher
	logger  *slog.Logger
}

// NewPageRepository fetches item pages and returns them as UTF-8 HTML.
func NewPageRepository(fetcher DocumentFetcher, logger *slog.Logger) PageRepository {
	return &pageRepository{fetcher: fetcher, logger: logger}
}

func (r *pageRepository) FetchPage(ctx context.Context, pageURL string) (string, error) {
	doc, err := r.fetcher.Fetch(ctx, "page", pageURL)
	if err != nil {
		return "", err
	}

	html, err := driver.DecodeHTML(doc)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrFetchFailure, pageURL, err)
	}

	r.logger.DebugContext(ctx, "page fetched", "item_url", pageURL, "bytes", len(doc.Body))
	return html, nil
}
