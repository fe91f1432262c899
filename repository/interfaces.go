package repository

import (
	"context"

	"feed-enricher/domain"
)

//go:generate mockgen -source=interfaces.go -destination=../test/mocks/repository_mocks.go -package=mocks

// FeedRepository retrieves items from a configured feed source.
type FeedRepository interface {
	FetchItems(ctx context.Context, source domain.Source) ([]domain.FeedItem, error)
}

// PageRepository retrieves the HTML of an item page.
type PageRepository interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// Generator is the text-generation capability. Failures are always *domain.GenerationError.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts domain.GenerationOptions) (string, error)
}

// StateStore persists the dedup state of each source. Load never fails the
// caller for a missing state; it returns an empty one.
type StateStore interface {
	Load(ctx context.Context, sourceID string) (*domain.ProcessingState, error)
	Save(ctx context.Context, sourceID string, state *domain.ProcessingState) error
}

// PublishSink accepts enriched records keyed by section identifier.
type PublishSink interface {
	Publish(ctx context.Context, sectionID string, records []*domain.EnrichedRecord) error
	Name() string
}
