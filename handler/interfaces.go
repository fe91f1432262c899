package handler

import (
	"context"

	"feed-enricher/orchestrator"
	"feed-enricher/service"
)

// RunController starts runs on demand and reports on them.
type RunController interface {
	Trigger(opts service.RunOptions) error
	Busy() bool
	LastSummary() *service.RunSummary
}

// StatusProvider reports the dedup state of every configured source.
type StatusProvider interface {
	Status(ctx context.Context) []orchestrator.SourceStatus
}

// DependencyCheck pings one external dependency.
type DependencyCheck func(ctx context.Context) error
