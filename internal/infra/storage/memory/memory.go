// Package memory provides the in-memory scan-failure store used when no
// database is configured and by the unit tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/readur/syncguard/internal/core/domain"
	"github.com/readur/syncguard/internal/infra/storage"
)

type key struct {
	userID     string
	sourceType domain.SourceType
	path       string
}

// ScanFailureRepo implements storage.ScanFailureRepository with maps.
type ScanFailureRepo struct {
	mu       sync.Mutex
	active   map[key]*domain.SourceScanFailure
	resolved []*domain.SourceScanFailure
	now      func() time.Time
}

// NewScanFailureRepo creates an empty in-memory repository.
func NewScanFailureRepo() *ScanFailureRepo {
	return &ScanFailureRepo{
		active: make(map[key]*domain.SourceScanFailure),
		now:    time.Now,
	}
}

func (r *ScanFailureRepo) Upsert(
	ctx context.Context,
	f *domain.CreateScanFailure,
) (*domain.SourceScanFailure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	k := key{f.UserID, f.SourceType, f.ResourcePath}

	if existing, ok := r.active[k]; ok {
		existing.FailureCount++
		existing.ConsecutiveFailures++
		existing.LastFailureAt = now
		// A recurrence after the scheduled retry time is a failed retry.
		if existing.NextRetryAt != nil && !existing.NextRetryAt.After(now) {
			at := now
			existing.LastRetryAt = &at
		}
		existing.ErrorType = f.ErrorType
		existing.ErrorSeverity = f.ErrorSeverity
		existing.ErrorMessage = f.ErrorMessage
		existing.Diagnostics = f.Diagnostics
		existing.RetryStrategy = f.RetryStrategy
		existing.MaxRetries = f.MaxRetries
		existing.RetryDelaySeconds = f.RetryDelaySeconds
		existing.NextRetryAt = f.NextRetryAt
		cp := *existing
		return &cp, nil
	}

	rec := &domain.SourceScanFailure{
		ID:                  uuid.New().String(),
		UserID:              f.UserID,
		SourceType:          f.SourceType,
		SourceID:            f.SourceID,
		ResourcePath:        f.ResourcePath,
		ErrorType:           f.ErrorType,
		ErrorSeverity:       f.ErrorSeverity,
		ErrorMessage:        f.ErrorMessage,
		FailureCount:        1,
		ConsecutiveFailures: 1,
		FirstFailureAt:      now,
		LastFailureAt:       now,
		Diagnostics:         f.Diagnostics,
		RetryStrategy:       f.RetryStrategy,
		MaxRetries:          f.MaxRetries,
		RetryDelaySeconds:   f.RetryDelaySeconds,
		NextRetryAt:         f.NextRetryAt,
	}
	r.active[k] = rec
	cp := *rec
	return &cp, nil
}

func (r *ScanFailureRepo) Get(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
	resourcePath string,
) (*domain.SourceScanFailure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.active[key{userID, sourceType, resourcePath}]
	if !ok {
		return nil, storage.ErrFailureNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *ScanFailureRepo) Resolve(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
	resourcePath string,
	method string,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{userID, sourceType, resourcePath}
	rec, ok := r.active[k]
	if !ok {
		return false, nil
	}
	now := r.now()
	rec.Resolved = true
	rec.ResolvedAt = &now
	rec.ResolutionMethod = method
	rec.ConsecutiveFailures = 0
	rec.NextRetryAt = nil
	delete(r.active, k)
	r.resolved = append(r.resolved, rec)
	return true, nil
}

func (r *ScanFailureRepo) ListRetryCandidates(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
	now time.Time,
) ([]*domain.SourceScanFailure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.SourceScanFailure
	for _, rec := range r.active {
		if rec.UserID != userID || rec.SourceType != sourceType {
			continue
		}
		if rec.UserExcluded || rec.NextRetryAt == nil || rec.NextRetryAt.After(now) {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ScanFailureRepo) SetUserExcluded(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
	resourcePath string,
	excluded bool,
	notes string,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.active[key{userID, sourceType, resourcePath}]
	if !ok {
		return storage.ErrFailureNotFound
	}
	rec.UserExcluded = excluded
	if notes != "" {
		rec.UserNotes = notes
	}
	return nil
}

func (r *ScanFailureRepo) ListUnresolved(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
) ([]*domain.SourceScanFailure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.SourceScanFailure
	for _, rec := range r.active {
		if rec.UserID != userID || rec.SourceType != sourceType {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ScanFailureRepo) CountUnresolved(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, rec := range r.active {
		if rec.UserID == userID && rec.SourceType == sourceType {
			count++
		}
	}
	return count, nil
}
