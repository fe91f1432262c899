// ABOUTME: Sequential source -> batch -> item driver with three delay tiers
// ABOUTME: Dedup state is checkpointed after every item; failures stay at item or source level
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"feed-enricher/domain"
	"feed-enricher/metrics"
	"feed-enricher/repository"
	"feed-enricher/utils/logger"

	"github.com/google/uuid"
)

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// Enricher is the per-item orchestrator used by the scheduler.
type Enricher interface {
	Enrich(ctx context.Context, source domain.Source, item domain.FeedItem) (*domain.EnrichedRecord, SkipReason)
}

// FailureJournal keeps records whose publish failed.
type FailureJournal interface {
	RecordPublishFailure(ctx context.Context, sectionID string, record *domain.EnrichedRecord, cause error) error
}

type SchedulerConfig struct {
	ItemDelay   time.Duration
	BatchDelay  time.Duration
	SourceDelay time.Duration
	BatchSize   int
}

type RunOptions struct {
	Limit  int
	Force  bool
	DryRun bool
}

// SourceSummary counts what happened to one source's items during a run.
type SourceSummary struct {
	SourceID      string `json:"source_id"`
	Fetched       int    `json:"fetched"`
	Skipped       int    `json:"skipped"`
	Insufficient  int    `json:"insufficient"`
	Published     int    `json:"published"`
	PublishFailed int    `json:"publish_failed"`
	FetchFailed   int    `json:"fetch_failed"`
	FeedError     string `json:"feed_error,omitempty"`
	StateError    string `json:"state_error,omitempty"`
}

// RunSummary is the result of one scheduler run.
type RunSummary struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Sources    []SourceSummary `json:"sources"`
}

// Published returns the number of records published across all sources.
func (r *RunSummary) Published() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Published
	}
	return total
}

// Processed returns the number of items handed to the enricher across all sources.
func (r *RunSummary) Processed() int {
	total := 0
	for _, s := range r.Sources {
		total += s.Insufficient + s.Published + s.PublishFailed + s.FetchFailed
	}
	return total
}

// BatchScheduler owns each source's ProcessingState for the duration of its run.
type BatchScheduler struct {
	feeds    repository.FeedRepository
	state    repository.StateStore
	sink     repository.PublishSink
	enricher Enricher
	journal  FailureJournal
	config   SchedulerConfig
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	running  atomic.Bool
	logger   *slog.Logger
}

type SchedulerOption func(*BatchScheduler)

// WithSleeper replaces the delay function.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) SchedulerOption {
	return func(s *BatchScheduler) { s.sleep = sleep }
}

// WithFailureJournal records failed publishes.
func WithFailureJournal(journal FailureJournal) SchedulerOption {
	return func(s *BatchScheduler) { s.journal = journal }
}

// WithClock replaces the time source used for lastRun stamps.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *BatchScheduler) { s.now = now }
}

func NewBatchScheduler(
	feeds repository.FeedRepository,
	state repository.StateStore,
	sink repository.PublishSink,
	enricher Enricher,
	config SchedulerConfig,
	logger *slog.Logger,
	opts ...SchedulerOption,
) *BatchScheduler {
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}
	s := &BatchScheduler{
		feeds:    feeds,
		state:    state,
		sink:     sink,
		enricher: enricher,
		config:   config,
		sleep:    sleepContext,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Running reports whether a run is active.
func (s *BatchScheduler) Running() bool {
	return s.running.Load()
}

// Run processes every source in order. Item and source failures are counted
// in the summary; only cancellation between items or a concurrent run returns an error.
func (s *BatchScheduler) Run(ctx context.Context, sources []domain.Source, opts RunOptions) (*RunSummary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer s.running.Store(false)

	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: s.now().UTC(),
		Sources:   make([]SourceSummary, 0, len(sources)),
	}
	ctx = logger.WithRunID(ctx, summary.RunID)

	s.logger.InfoContext(ctx, "run started",
		"sources", len(sources),
		"limit", opts.Limit,
		"force", opts.Force,
		"dry_run", opts.DryRun)

	var runErr error
	for i, source := range sources {
		sourceSummary, err := s.runSource(logger.WithSourceID(ctx, source.ID), source, opts)
		summary.Sources = append(summary.Sources, sourceSummary)
		if err != nil {
			runErr = err
			break
		}

		if i < len(sources)-1 {
			if err := s.sleep(ctx, s.config.SourceDelay); err != nil {
				runErr = err
				break
			}
		}
	}

	summary.FinishedAt = s.now().UTC()
	status := "success"
	if runErr != nil {
		status = "cancelled"
	}
	metrics.RecordRun(status)

	s.logger.InfoContext(ctx, "run finished",
		"status", status,
		"processed", summary.Processed(),
		"published", summary.Published(),
		"duration_ms", summary.FinishedAt.Sub(summary.StartedAt).Milliseconds())

	return summary, runErr
}

func (s *BatchScheduler) runSource(ctx context.Context, source domain.Source, opts RunOptions) (SourceSummary, error) {
	summary := SourceSummary{SourceID: source.ID}

	items, err := s.feeds.FetchItems(ctx, source)
	if err != nil {
		summary.FeedError = err.Error()
		s.logger.ErrorContext(ctx, "feed fetch failed, skipping source", "error", err)
		metrics.RecordItem(source.ID, "feed_failed")
		return summary, nil
	}
	summary.Fetched = len(items)

	// A state that failed to load is never saved back, so the persisted keys survive the outage.
	persist := !opts.DryRun
	state, err := s.state.Load(ctx, source.ID)
	if err != nil {
		persist = false
		summary.StateError = err.Error()
		s.logger.WarnContext(ctx, "state load failed, continuing in memory without saving", "error", err)
	}
	if state == nil {
		state = domain.NewProcessingState()
	}

	pending := s.pendingItems(items, state, opts)
	summary.Skipped = len(items) - len(pending)
	metrics.SetProcessedKeys(state.Len())

	s.logger.InfoContext(ctx, "source run started",
		"fetched", summary.Fetched,
		"pending", len(pending),
		"already_processed", summary.Skipped)

	batchSize := s.config.BatchSize
	for start := 0; start < len(pending); start += batchSize {
		end := min(start+batchSize, len(pending))
		batch := pending[start:end]

		s.logger.DebugContext(ctx, "batch started", "batch_start", start, "batch_size", len(batch))

		for _, item := range batch {
			if err := ctx.Err(); err != nil {
				return summary, err
			}

			// An item that has started runs to completion even if the run is cancelled.
			s.processItem(context.WithoutCancel(logger.WithItemURL(ctx, item.Key())), source, item, state, opts, persist, &summary)

			if err := s.sleep(ctx, s.config.ItemDelay); err != nil {
				return summary, err
			}
		}

		if end < len(pending) {
			if err := s.sleep(ctx, s.config.BatchDelay); err != nil {
				return summary, err
			}
		}
	}

	s.logger.InfoContext(ctx, "source run finished",
		"published", summary.Published,
		"publish_failed", summary.PublishFailed,
		"insufficient", summary.Insufficient,
		"fetch_failed", summary.FetchFailed)

	return summary, nil
}

// pendingItems drops already processed keys (unless forced) and duplicate
// keys within the feed, then applies the per-source limit.
func (s *BatchScheduler) pendingItems(items []domain.FeedItem, state *domain.ProcessingState, opts RunOptions) []domain.FeedItem {
	seen := make(map[string]struct{}, len(items))
	pending := make([]domain.FeedItem, 0, len(items))
	for _, item := range items {
		key := item.Key()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if !opts.Force && state.Has(key) {
			continue
		}
		pending = append(pending, item)
	}
	if opts.Limit > 0 && len(pending) > opts.Limit {
		pending = pending[:opts.Limit]
	}
	return pending
}

func (s *BatchScheduler) processItem(ctx context.Context, source domain.Source, item domain.FeedItem, state *domain.ProcessingState, opts RunOptions, persist bool, summary *SourceSummary) {
	record, reason := s.enricher.Enrich(ctx, source, item)

	switch reason {
	case SkipFetchFailed:
		summary.FetchFailed++
		metrics.RecordItem(source.ID, string(SkipFetchFailed))
	case SkipInsufficient:
		summary.Insufficient++
		metrics.RecordItem(source.ID, string(SkipInsufficient))
	default:
		if err := s.sink.Publish(ctx, source.Section, []*domain.EnrichedRecord{record}); err != nil {
			summary.PublishFailed++
			metrics.RecordItem(source.ID, "publish_failed")
			metrics.RecordPublish(s.sink.Name(), "error")
			s.logger.ErrorContext(ctx, "publish failed, item left unprocessed", "error", err)
			s.journalFailure(ctx, source, record, err)
		} else {
			summary.Published++
			metrics.RecordItem(source.ID, "published")
			metrics.RecordPublish(s.sink.Name(), "success")
			s.logger.InfoContext(ctx, "record published", "stage", domain.StagePublished, "sink", s.sink.Name())
			if !opts.DryRun {
				state.Mark(item.Key())
			}
		}
	}

	if !persist {
		return
	}

	state.LastRun = s.now().UTC()
	if err := s.state.Save(ctx, source.ID, state); err != nil {
		s.logger.ErrorContext(ctx, "state save failed, continuing in memory", "error", err)
		return
	}
	metrics.SetProcessedKeys(state.Len())
}

func (s *BatchScheduler) journalFailure(ctx context.Context, source domain.Source, record *domain.EnrichedRecord, cause error) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordPublishFailure(ctx, source.Section, record, cause); err != nil {
		s.logger.WarnContext(ctx, "failed to journal publish failure", "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
