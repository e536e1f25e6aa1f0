package storage

import (
	"context"
	"errors"
	"time"

	"github.com/readur/syncguard/internal/core/domain"
)

var (
	// ErrFailureNotFound is returned when no failure record exists for a key
	ErrFailureNotFound = errors.New("scan failure not found")
)

// ScanFailureRepository handles durable scan-failure records. The store is
// the single writer of truth: concurrent upserts for the same
// (user_id, source_type, resource_path) key serialize on an atomic
// increment so counter updates are never lost.
type ScanFailureRepository interface {
	// Upsert inserts a new failure record or, if an unresolved record
	// exists for the key, increments its counters and refreshes the
	// classification and retry policy snapshot. Returns the stored record.
	Upsert(ctx context.Context, f *domain.CreateScanFailure) (*domain.SourceScanFailure, error)

	// Get retrieves the unresolved failure for a key, or ErrFailureNotFound.
	Get(
		ctx context.Context,
		userID string,
		sourceType domain.SourceType,
		resourcePath string,
	) (*domain.SourceScanFailure, error)

	// Resolve marks the unresolved failure for a key as resolved, resets
	// consecutive_failures, and clears next_retry_at. Reports whether a
	// record was resolved.
	Resolve(
		ctx context.Context,
		userID string,
		sourceType domain.SourceType,
		resourcePath string,
		method string,
	) (bool, error)

	// ListRetryCandidates returns unresolved, non-excluded failures whose
	// next_retry_at is at or before now.
	ListRetryCandidates(
		ctx context.Context,
		userID string,
		sourceType domain.SourceType,
		now time.Time,
	) ([]*domain.SourceScanFailure, error)

	// SetUserExcluded flips the user-exclusion flag on the unresolved
	// failure for a key, suppressing automatic retry until reversed.
	SetUserExcluded(
		ctx context.Context,
		userID string,
		sourceType domain.SourceType,
		resourcePath string,
		excluded bool,
		notes string,
	) error

	// ListUnresolved returns all unresolved failures for a user and source.
	ListUnresolved(
		ctx context.Context,
		userID string,
		sourceType domain.SourceType,
	) ([]*domain.SourceScanFailure, error)

	// CountUnresolved returns the number of unresolved failures.
	CountUnresolved(
		ctx context.Context,
		userID string,
		sourceType domain.SourceType,
	) (int, error)
}
