package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/readur/syncguard/internal/sync/failure"
)

// RetryWorker periodically re-feeds due failed paths back into the engine.
type RetryWorker struct {
	tracker  *failure.Tracker
	orch     *Orchestrator
	userID   string
	interval time.Duration
	log      *slog.Logger
}

// NewRetryWorker creates a worker polling every interval.
func NewRetryWorker(
	tracker *failure.Tracker,
	orch *Orchestrator,
	userID string,
	interval time.Duration,
	log *slog.Logger,
) *RetryWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	return &RetryWorker{
		tracker:  tracker,
		orch:     orch,
		userID:   userID,
		interval: interval,
		log:      log.With("component", "retry_worker", "source_type", string(tracker.SourceType())),
	}
}

// Run polls until the context is cancelled.
func (w *RetryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce processes one batch of due retry candidates.
func (w *RetryWorker) RunOnce(ctx context.Context) {
	paths := w.tracker.GetRetryCandidates(ctx, w.userID)
	if len(paths) == 0 {
		return
	}
	w.log.Info("Retrying failed paths", "count", len(paths))

	for _, p := range paths {
		if ctx.Err() != nil {
			return
		}
		if _, err := w.orch.ScanPath(ctx, p); err != nil {
			w.log.Warn("Retry scan aborted", "path", p, "error", err)
			return
		}
	}
}
