package failure

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/readur/syncguard/internal/core/domain"
	"github.com/readur/syncguard/internal/infra/storage"
	"github.com/readur/syncguard/internal/infra/storage/memory"
	"github.com/readur/syncguard/internal/sync/classify"
)

const testUser = "user-1"

func newTestTracker() (*Tracker, *memory.ScanFailureRepo) {
	repo := memory.NewScanFailureRepo()
	t := NewTracker(repo, classify.DefaultRegistry(), domain.SourceWebDAV, "src-1", nil, nil)
	return t, repo
}

func TestTrackScanError_UpsertIncrements(t *testing.T) {
	tracker, repo := newTestTracker()
	ctx := context.Background()
	ectx := classify.NewErrorContext("list_directory", "/docs")

	for i := 0; i < 3; i++ {
		tracker.TrackScanError(ctx, testUser, "/docs",
			errors.New("503 Service Unavailable"), ectx)
	}

	rec, err := repo.Get(ctx, testUser, domain.SourceWebDAV, "/docs")
	if err != nil {
		t.Fatalf("expected a failure record: %v", err)
	}
	if rec.FailureCount != 3 {
		t.Errorf("failure_count = %d, want 3", rec.FailureCount)
	}
	if rec.ConsecutiveFailures != 3 {
		t.Errorf("consecutive_failures = %d, want 3", rec.ConsecutiveFailures)
	}
	if rec.ErrorType != domain.ErrorTypeServerError {
		t.Errorf("error_type = %s, want server_error", rec.ErrorType)
	}
	if rec.NextRetryAt == nil || !rec.NextRetryAt.After(time.Now()) {
		t.Error("next_retry_at must be set in the future")
	}
}

func TestMarkScanSuccessful_ResolvesAndResets(t *testing.T) {
	tracker, repo := newTestTracker()
	ctx := context.Background()
	ectx := classify.NewErrorContext("list_directory", "/docs")

	// Three consecutive failures, then a successful scan.
	for i := 0; i < 3; i++ {
		tracker.TrackScanError(ctx, testUser, "/docs", errors.New("timeout"), ectx)
	}
	tracker.MarkScanSuccessful(ctx, testUser, "/docs")

	if _, err := repo.Get(ctx, testUser, domain.SourceWebDAV, "/docs"); !errors.Is(err, storage.ErrFailureNotFound) {
		t.Fatalf("record should no longer be unresolved, got %v", err)
	}

	// A new failure after resolution starts a fresh consecutive streak.
	tracker.TrackScanError(ctx, testUser, "/docs", errors.New("timeout"), ectx)
	rec, err := repo.Get(ctx, testUser, domain.SourceWebDAV, "/docs")
	if err != nil {
		t.Fatalf("expected new record: %v", err)
	}
	if rec.ConsecutiveFailures != 1 {
		t.Errorf("consecutive_failures = %d, want 1 after resolution", rec.ConsecutiveFailures)
	}
}

func TestMarkScanSuccessful_NoRecordIsNoop(t *testing.T) {
	tracker, _ := newTestTracker()
	tracker.MarkScanSuccessful(context.Background(), testUser, "/never-failed")
}

func TestShouldSkipDirectory(t *testing.T) {
	tracker, repo := newTestTracker()
	ctx := context.Background()

	if tracker.ShouldSkipDirectory(ctx, testUser, "/clean") {
		t.Error("paths with no failure record must not be skipped")
	}

	tracker.TrackScanError(ctx, testUser, "/failing",
		errors.New("503 Service Unavailable"),
		classify.NewErrorContext("list_directory", "/failing"))

	if !tracker.ShouldSkipDirectory(ctx, testUser, "/failing") {
		t.Error("path with a future next_retry_at must be skipped")
	}

	// Excluded paths are skipped regardless of retry timing.
	if err := tracker.ExcludePath(ctx, testUser, "/failing", true, "known bad share"); err != nil {
		t.Fatalf("ExcludePath failed: %v", err)
	}
	if !tracker.ShouldSkipDirectory(ctx, testUser, "/failing") {
		t.Error("user-excluded path must be skipped")
	}

	rec, _ := repo.Get(ctx, testUser, domain.SourceWebDAV, "/failing")
	if rec.UserNotes != "known bad share" {
		t.Errorf("user_notes = %q, want note preserved", rec.UserNotes)
	}
}

func TestShouldSkipDirectory_FailsOpen(t *testing.T) {
	repo := &erroringRepo{}
	tracker := NewTracker(repo, classify.DefaultRegistry(), domain.SourceWebDAV, "src-1", nil, nil)

	if tracker.ShouldSkipDirectory(context.Background(), testUser, "/anything") {
		t.Error("skip check must fail open when the store is unavailable")
	}
}

func TestTrackScanError_SwallowsPersistenceErrors(t *testing.T) {
	repo := &erroringRepo{}
	tracker := NewTracker(repo, classify.DefaultRegistry(), domain.SourceWebDAV, "src-1", nil, nil)

	// Must not panic or propagate: a failure to record a failure is not
	// allowed to destabilize the crawl.
	tracker.TrackScanError(context.Background(), testUser, "/docs",
		errors.New("timeout"), classify.NewErrorContext("list_directory", "/docs"))
}

func TestGetRetryCandidates(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()
	past := time.Now().Add(-time.Minute)

	tracker.TrackScanError(ctx, testUser, "/due",
		errors.New("connection refused"),
		classify.NewErrorContext("list_directory", "/due"))
	tracker.TrackScanError(ctx, testUser, "/not-due",
		errors.New("connection refused"),
		classify.NewErrorContext("list_directory", "/not-due"))

	// Rewind the tracker clock so /due's next_retry_at lands in the past
	// relative to the candidate query.
	tracker.now = func() time.Time { return past.Add(2 * time.Hour) }
	candidates := tracker.GetRetryCandidates(ctx, testUser)

	found := map[string]bool{}
	for _, p := range candidates {
		found[p] = true
	}
	if !found["/due"] || !found["/not-due"] {
		t.Errorf("both paths should be due two hours later, got %v", candidates)
	}

	tracker.now = time.Now
	if got := tracker.GetRetryCandidates(ctx, testUser); len(got) != 0 {
		t.Errorf("no path should be due immediately, got %v", got)
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		name        string
		strategy    domain.RetryStrategy
		base        time.Duration
		consecutive int
		want        time.Duration
	}{
		{"exponential first", domain.RetryExponential, time.Minute, 1, time.Minute},
		{"exponential third", domain.RetryExponential, time.Minute, 3, 4 * time.Minute},
		{"exponential capped", domain.RetryExponential, time.Hour, 10, maxRetryDelay},
		{"linear third", domain.RetryLinear, 30 * time.Second, 3, 90 * time.Second},
		{"fixed always base", domain.RetryFixed, time.Hour, 7, time.Hour},
		{"zero consecutive treated as one", domain.RetryExponential, time.Minute, 0, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryDelay(tt.strategy, tt.base, tt.consecutive); got != tt.want {
				t.Errorf("retryDelay(%s, %s, %d) = %s, want %s",
					tt.strategy, tt.base, tt.consecutive, got, tt.want)
			}
		})
	}
}

// erroringRepo fails every operation, for fail-open tests.
type erroringRepo struct{}

var errStoreDown = errors.New("store unavailable")

func (r *erroringRepo) Upsert(context.Context, *domain.CreateScanFailure) (*domain.SourceScanFailure, error) {
	return nil, errStoreDown
}

func (r *erroringRepo) Get(context.Context, string, domain.SourceType, string) (*domain.SourceScanFailure, error) {
	return nil, errStoreDown
}

func (r *erroringRepo) Resolve(context.Context, string, domain.SourceType, string, string) (bool, error) {
	return false, errStoreDown
}

func (r *erroringRepo) ListRetryCandidates(context.Context, string, domain.SourceType, time.Time) ([]*domain.SourceScanFailure, error) {
	return nil, errStoreDown
}

func (r *erroringRepo) SetUserExcluded(context.Context, string, domain.SourceType, string, bool, string) error {
	return errStoreDown
}

func (r *erroringRepo) ListUnresolved(context.Context, string, domain.SourceType) ([]*domain.SourceScanFailure, error) {
	return nil, errStoreDown
}

func (r *erroringRepo) CountUnresolved(context.Context, string, domain.SourceType) (int, error) {
	return 0, errStoreDown
}
