package orchestrator

import (
	"context"
	"time"

	"feed-enricher/domain"
	"feed-enricher/repository"
	"feed-enricher/service"

	"golang.org/x/sync/errgroup"
)

// SourceStatus is the dedup state summary of one source.
type SourceStatus struct {
	SourceID     string    `json:"source_id"`
	URL          string    `json:"url"`
	SectionLabel string    `json:"section_label"`
	Processed    int       `json:"processed"`
	LastRun      time.Time `json:"last_run,omitzero"`
	Error        string    `json:"error,omitempty"`
}

// CollectStatus loads the state of every source with bounded concurrency.
// Results keep the order of sources; a failed load is reported per source.
func CollectStatus(ctx context.Context, sources []domain.Source, store repository.StateStore, labels service.SectionLabeler, concurrency int) []SourceStatus {
	if concurrency <= 0 {
		concurrency = 1
	}

	statuses := make([]SourceStatus, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, source := range sources {
		g.Go(func() error {
			status := SourceStatus{
				SourceID:     source.ID,
				URL:          source.URL,
				SectionLabel: source.Section,
			}
			if labels != nil {
				status.SectionLabel = labels.SectionLabel(source.Section)
			}

			state, err := store.Load(gctx, source.ID)
			if err != nil {
				status.Error = err.Error()
			}
			if state != nil {
				status.Processed = state.Len()
				status.LastRun = state.LastRun
			}
			statuses[i] = status
			return nil
		})
	}
	_ = g.Wait()

	return statuses
}
