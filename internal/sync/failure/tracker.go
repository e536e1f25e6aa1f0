// Package failure orchestrates error classification, persistence of scan
// failure records, skip/retry decisions, and resolution on success.
package failure

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/readur/syncguard/internal/core/domain"
	redisclient "github.com/readur/syncguard/internal/infra/redis"
	"github.com/readur/syncguard/internal/infra/storage"
	"github.com/readur/syncguard/internal/sync/classify"
	"github.com/readur/syncguard/internal/sync/metrics"
)

// maxRetryDelay caps computed backoff regardless of strategy.
const maxRetryDelay = 24 * time.Hour

// Tracker records scan failures for one source. It treats its backing store
// as the single writer of truth and never lets a bookkeeping fault
// destabilize the crawl: persistence errors are logged and swallowed, and
// skip decisions fail open toward attempting the scan.
type Tracker struct {
	repo       storage.ScanFailureRepository
	registry   *classify.Registry
	sourceType domain.SourceType
	sourceID   string
	schedule   *redisclient.RetrySchedule // optional fast retry index
	log        *slog.Logger
	now        func() time.Time
}

// NewTracker creates a failure tracker for one source. schedule may be nil
// when Redis is not configured.
func NewTracker(
	repo storage.ScanFailureRepository,
	registry *classify.Registry,
	sourceType domain.SourceType,
	sourceID string,
	schedule *redisclient.RetrySchedule,
	log *slog.Logger,
) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		repo:       repo,
		registry:   registry,
		sourceType: sourceType,
		sourceID:   sourceID,
		schedule:   schedule,
		log:        log.With("component", "failure_tracker", "source_type", string(sourceType)),
		now:        time.Now,
	}
}

// TrackScanError classifies a scan error and upserts the durable failure
// record, incrementing counters and recomputing next_retry_at. Loop
// rejections must not be passed here; they are in-memory signals only.
func (t *Tracker) TrackScanError(
	ctx context.Context,
	userID, resourcePath string,
	scanErr error,
	ectx classify.ErrorContext,
) {
	classifier := t.registry.For(t.sourceType)
	cl := classifier.ClassifyError(scanErr, ectx)

	metrics.ScanErrors.WithLabelValues(
		string(t.sourceType), string(cl.ErrorType), string(cl.Severity),
	).Inc()

	consecutive := 1
	if existing, err := t.repo.Get(ctx, userID, t.sourceType, resourcePath); err == nil {
		consecutive = existing.ConsecutiveFailures + 1
	}

	nextRetry := t.now().Add(retryDelay(cl.RetryStrategy, cl.RetryDelay, consecutive))
	msg := ""
	if scanErr != nil {
		msg = scanErr.Error()
	}

	create := &domain.CreateScanFailure{
		UserID:            userID,
		SourceType:        t.sourceType,
		SourceID:          t.sourceID,
		ResourcePath:      resourcePath,
		ErrorType:         cl.ErrorType,
		ErrorSeverity:     cl.Severity,
		ErrorMessage:      msg,
		Diagnostics:       cl.Diagnostics,
		RetryStrategy:     cl.RetryStrategy,
		MaxRetries:        cl.MaxRetries,
		RetryDelaySeconds: int(cl.RetryDelay.Seconds()),
		NextRetryAt:       &nextRetry,
	}

	stored, err := t.repo.Upsert(ctx, create)
	if err != nil {
		// Recording the failure failed; the crawl must not care.
		t.log.Error("Failed to persist scan failure",
			"path", resourcePath, "error", err, "scan_error", msg)
		return
	}

	t.log.Warn("Scan error tracked",
		"path", resourcePath,
		"error_type", string(stored.ErrorType),
		"severity", string(stored.ErrorSeverity),
		"consecutive_failures", stored.ConsecutiveFailures)

	if t.schedule == nil {
		return
	}
	if classifier.ShouldRetry(stored) && stored.NextRetryAt != nil {
		if err := t.schedule.Schedule(ctx, resourcePath, *stored.NextRetryAt); err != nil {
			t.log.Warn("Failed to mirror retry schedule", "path", resourcePath, "error", err)
		}
	} else {
		if err := t.schedule.Remove(ctx, resourcePath); err != nil {
			t.log.Warn("Failed to drop exhausted retry", "path", resourcePath, "error", err)
		}
	}
}

// ShouldSkipDirectory reports whether the crawl should skip a path: an
// unresolved failure is waiting for its retry time, or the user excluded
// it. Any internal error defaults to not skipping, so a broken bookkeeping
// layer can never silently abandon data.
func (t *Tracker) ShouldSkipDirectory(ctx context.Context, userID, resourcePath string) bool {
	rec, err := t.repo.Get(ctx, userID, t.sourceType, resourcePath)
	if errors.Is(err, storage.ErrFailureNotFound) {
		return false
	}
	if err != nil {
		t.log.Warn("Failed to check skip state, proceeding with scan",
			"path", resourcePath, "error", err)
		return false
	}
	if rec.UserExcluded {
		return true
	}
	return rec.NextRetryAt != nil && rec.NextRetryAt.After(t.now())
}

// MarkScanSuccessful resolves any unresolved failure for the path with
// resolution method "successful_scan".
func (t *Tracker) MarkScanSuccessful(ctx context.Context, userID, resourcePath string) {
	resolved, err := t.repo.Resolve(ctx, userID, t.sourceType, resourcePath, "successful_scan")
	if err != nil {
		t.log.Error("Failed to resolve scan failure", "path", resourcePath, "error", err)
		return
	}
	if !resolved {
		return
	}

	metrics.FailuresResolved.WithLabelValues(string(t.sourceType)).Inc()
	t.log.Info("Scan failure resolved", "path", resourcePath)

	if t.schedule != nil {
		if err := t.schedule.Remove(ctx, resourcePath); err != nil {
			t.log.Warn("Failed to drop resolved retry", "path", resourcePath, "error", err)
		}
	}
}

// GetRetryCandidates returns paths whose retry time has arrived. The Redis
// schedule is consulted first as a cheap emptiness check; the database
// remains authoritative.
func (t *Tracker) GetRetryCandidates(ctx context.Context, userID string) []string {
	now := t.now()

	if t.schedule != nil {
		due, err := t.schedule.Due(ctx, now)
		if err == nil && len(due) == 0 {
			metrics.RetryCandidates.WithLabelValues(string(t.sourceType)).Set(0)
			return nil
		}
	}

	failures, err := t.repo.ListRetryCandidates(ctx, userID, t.sourceType, now)
	if err != nil {
		t.log.Warn("Failed to list retry candidates", "error", err)
		return nil
	}

	paths := make([]string, 0, len(failures))
	classifier := t.registry.For(t.sourceType)
	for _, f := range failures {
		if classifier.ShouldRetry(f) {
			paths = append(paths, f.ResourcePath)
		}
	}
	metrics.RetryCandidates.WithLabelValues(string(t.sourceType)).Set(float64(len(paths)))
	return paths
}

// ExcludePath sets or clears the user exclusion flag for a path.
func (t *Tracker) ExcludePath(
	ctx context.Context,
	userID, resourcePath string,
	excluded bool,
	notes string,
) error {
	return t.repo.SetUserExcluded(ctx, userID, t.sourceType, resourcePath, excluded, notes)
}

// SourceType returns the source this tracker is bound to.
func (t *Tracker) SourceType() domain.SourceType { return t.sourceType }

// retryDelay computes the backoff before the next retry from the policy
// snapshot and the number of consecutive failures so far.
func retryDelay(strategy domain.RetryStrategy, base time.Duration, consecutive int) time.Duration {
	if consecutive < 1 {
		consecutive = 1
	}
	var d time.Duration
	switch strategy {
	case domain.RetryExponential:
		d = base
		for i := 1; i < consecutive; i++ {
			d *= 2
			if d >= maxRetryDelay {
				return maxRetryDelay
			}
		}
	case domain.RetryLinear:
		d = base * time.Duration(consecutive)
	default:
		d = base
	}
	if d > maxRetryDelay {
		d = maxRetryDelay
	}
	return d
}
