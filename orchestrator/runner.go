package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"feed-enricher/service"
)

// RunFunc executes one enrichment run over the configured sources.
type RunFunc func(ctx context.Context, opts service.RunOptions) (*service.RunSummary, error)

// RunnerConfig configures the periodic runner used in serve mode.
type RunnerConfig struct {
	Interval       time.Duration
	RunImmediately bool // Run once before waiting for the first tick
	Options        service.RunOptions
}

var ErrRunnerNotStarted = errors.New("runner not started")

// Runner starts enrichment runs on a fixed interval and on demand. At most one
// run is active at a time; ticks that land during a run are skipped.
type Runner struct {
	config RunnerConfig
	run    RunFunc
	logger *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	last   *service.RunSummary
	wg     sync.WaitGroup
	busy   atomic.Bool
}

func NewRunner(config RunnerConfig, run RunFunc, logger *slog.Logger) *Runner {
	return &Runner{
		config: config,
		run:    run,
		logger: logger,
	}
}

// Start launches the periodic loop. Runs started later by Trigger share its lifetime.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	r.ctx, r.cancel = context.WithCancel(ctx)
	runCtx := r.ctx
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop(runCtx)
	}()
}

// Stop cancels the loop and any active run, then waits for both to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// Trigger starts an asynchronous run. It fails with service.ErrRunInProgress when a run is active.
func (r *Runner) Trigger(opts service.RunOptions) error {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil {
		return ErrRunnerNotStarted
	}
	if !r.busy.CompareAndSwap(false, true) {
		return service.ErrRunInProgress
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.busy.Store(false)
		r.execute(ctx, opts, "manual")
	}()
	return nil
}

// Busy reports whether a run is active.
func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// LastSummary returns the summary of the most recent finished run, or nil.
func (r *Runner) LastSummary() *service.RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *Runner) loop(ctx context.Context) {
	if r.config.RunImmediately {
		r.tick(ctx)
	}

	if r.config.Interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "periodic runner stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if !r.busy.CompareAndSwap(false, true) {
		r.logger.WarnContext(ctx, "previous run still active, skipping tick")
		return
	}
	defer r.busy.Store(false)
	r.execute(ctx, r.config.Options, "interval")
}

func (r *Runner) execute(ctx context.Context, opts service.RunOptions, trigger string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "panic in enrichment run", "trigger", trigger, "panic", rec)
		}
	}()

	summary, err := r.run(ctx, opts)
	if summary != nil {
		r.mu.Lock()
		r.last = summary
		r.mu.Unlock()
	}

	switch {
	case err == nil && summary != nil:
		r.logger.InfoContext(ctx, "enrichment run completed",
			"trigger", trigger,
			"run_id", summary.RunID,
			"published", summary.Published())
	case err == nil:
	case errors.Is(err, context.Canceled):
		r.logger.InfoContext(ctx, "enrichment run cancelled", "trigger", trigger)
	default:
		r.logger.ErrorContext(ctx, "enrichment run failed", "trigger", trigger, "error", err)
	}
}
