package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/readur/syncguard/internal/core/domain"
	"github.com/readur/syncguard/internal/infra/storage"
)

// ScanFailureRepo implements storage.ScanFailureRepository using PostgreSQL.
// The upsert relies on the partial unique index over unresolved rows, so the
// counter increments are atomic on the database side.
type ScanFailureRepo struct {
	db *DB
}

// NewScanFailureRepo creates a new PostgreSQL scan failure repository.
func NewScanFailureRepo(db *DB) *ScanFailureRepo {
	return &ScanFailureRepo{db: db}
}

type failureRow struct {
	ID                  string         `db:"id"`
	UserID              string         `db:"user_id"`
	SourceType          string         `db:"source_type"`
	SourceID            sql.NullString `db:"source_id"`
	ResourcePath        string         `db:"resource_path"`
	ErrorType           string         `db:"error_type"`
	ErrorSeverity       string         `db:"error_severity"`
	ErrorMessage        string         `db:"error_message"`
	FailureCount        int            `db:"failure_count"`
	ConsecutiveFailures int            `db:"consecutive_failures"`
	FirstFailureAt      time.Time      `db:"first_failure_at"`
	LastFailureAt       time.Time      `db:"last_failure_at"`
	LastRetryAt         *time.Time     `db:"last_retry_at"`
	NextRetryAt         *time.Time     `db:"next_retry_at"`
	Diagnostics         []byte         `db:"diagnostics"`
	UserExcluded        bool           `db:"user_excluded"`
	UserNotes           sql.NullString `db:"user_notes"`
	RetryStrategy       string         `db:"retry_strategy"`
	MaxRetries          int            `db:"max_retries"`
	RetryDelaySeconds   int            `db:"retry_delay_seconds"`
	Resolved            bool           `db:"resolved"`
	ResolvedAt          *time.Time     `db:"resolved_at"`
	ResolutionMethod    sql.NullString `db:"resolution_method"`
}

const failureColumns = `
	id, user_id, source_type, source_id, resource_path,
	error_type, error_severity, error_message,
	failure_count, consecutive_failures,
	first_failure_at, last_failure_at, last_retry_at, next_retry_at,
	diagnostics, user_excluded, user_notes,
	retry_strategy, max_retries, retry_delay_seconds,
	resolved, resolved_at, resolution_method
`

func (row *failureRow) toDomain() *domain.SourceScanFailure {
	f := &domain.SourceScanFailure{
		ID:                  row.ID,
		UserID:              row.UserID,
		SourceType:          domain.SourceType(row.SourceType),
		SourceID:            row.SourceID.String,
		ResourcePath:        row.ResourcePath,
		ErrorType:           domain.ErrorType(row.ErrorType),
		ErrorSeverity:       domain.ErrorSeverity(row.ErrorSeverity),
		ErrorMessage:        row.ErrorMessage,
		FailureCount:        row.FailureCount,
		ConsecutiveFailures: row.ConsecutiveFailures,
		FirstFailureAt:      row.FirstFailureAt,
		LastFailureAt:       row.LastFailureAt,
		LastRetryAt:         row.LastRetryAt,
		NextRetryAt:         row.NextRetryAt,
		UserExcluded:        row.UserExcluded,
		UserNotes:           row.UserNotes.String,
		RetryStrategy:       domain.RetryStrategy(row.RetryStrategy),
		MaxRetries:          row.MaxRetries,
		RetryDelaySeconds:   row.RetryDelaySeconds,
		Resolved:            row.Resolved,
		ResolvedAt:          row.ResolvedAt,
		ResolutionMethod:    row.ResolutionMethod.String,
	}
	if len(row.Diagnostics) > 0 {
		var d domain.Diagnostics
		if err := json.Unmarshal(row.Diagnostics, &d); err == nil {
			f.Diagnostics = d
		}
	}
	return f
}

// Upsert inserts a failure record or atomically increments the counters of
// the existing unresolved record for the same key. A recurrence whose
// next_retry_at had already passed is a failed retry attempt and stamps
// last_retry_at.
func (r *ScanFailureRepo) Upsert(
	ctx context.Context,
	f *domain.CreateScanFailure,
) (*domain.SourceScanFailure, error) {
	diags, err := json.Marshal(f.Diagnostics)
	if err != nil {
		diags = []byte("{}")
	}

	query := `
		INSERT INTO source_scan_failures (
			user_id, source_type, source_id, resource_path,
			error_type, error_severity, error_message,
			failure_count, consecutive_failures,
			first_failure_at, last_failure_at, next_retry_at,
			diagnostics, retry_strategy, max_retries, retry_delay_seconds
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, 1, NOW(), NOW(), $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, source_type, resource_path) WHERE NOT resolved
		DO UPDATE SET
			failure_count        = source_scan_failures.failure_count + 1,
			consecutive_failures = source_scan_failures.consecutive_failures + 1,
			last_failure_at      = NOW(),
			last_retry_at        = CASE
				WHEN source_scan_failures.next_retry_at IS NOT NULL
				     AND source_scan_failures.next_retry_at <= NOW()
				THEN NOW()
				ELSE source_scan_failures.last_retry_at
			END,
			error_type           = EXCLUDED.error_type,
			error_severity       = EXCLUDED.error_severity,
			error_message        = EXCLUDED.error_message,
			next_retry_at        = EXCLUDED.next_retry_at,
			diagnostics          = EXCLUDED.diagnostics,
			retry_strategy       = EXCLUDED.retry_strategy,
			max_retries          = EXCLUDED.max_retries,
			retry_delay_seconds  = EXCLUDED.retry_delay_seconds
		RETURNING ` + failureColumns

	var row failureRow
	err = r.db.GetContext(
		ctx, &row, query,
		f.UserID, string(f.SourceType), nullable(f.SourceID), f.ResourcePath,
		string(f.ErrorType), string(f.ErrorSeverity), f.ErrorMessage,
		f.NextRetryAt, diags,
		string(f.RetryStrategy), f.MaxRetries, f.RetryDelaySeconds,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert scan failure: %w", err)
	}
	return row.toDomain(), nil
}

// Get returns the unresolved failure for a key.
func (r *ScanFailureRepo) Get(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
	resourcePath string,
) (*domain.SourceScanFailure, error) {
	query := `
		SELECT ` + failureColumns + `
		FROM source_scan_failures
		WHERE user_id = $1 AND source_type = $2 AND resource_path = $3 AND NOT resolved
	`
	var row failureRow
	err := r.db.GetContext(ctx, &row, query, userID, string(sourceType), resourcePath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrFailureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan failure: %w", err)
	}
	return row.toDomain(), nil
}

// Resolve marks the unresolved failure for a key as resolved.
func (r *ScanFailureRepo) Resolve(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
	resourcePath string,
	method string,
) (bool, error) {
	query := `
		UPDATE source_scan_failures
		SET resolved = TRUE,
		    resolved_at = NOW(),
		    resolution_method = $4,
		    consecutive_failures = 0,
		    next_retry_at = NULL
		WHERE user_id = $1 AND source_type = $2 AND resource_path = $3 AND NOT resolved
	`
	res, err := r.db.ExecContext(ctx, query, userID, string(sourceType), resourcePath, method)
	if err != nil {
		return false, fmt.Errorf("failed to resolve scan failure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListRetryCandidates returns unresolved, non-excluded failures due for retry.
func (r *ScanFailureRepo) ListRetryCandidates(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
	now time.Time,
) ([]*domain.SourceScanFailure, error) {
	query := `
		SELECT ` + failureColumns + `
		FROM source_scan_failures
		WHERE user_id = $1 AND source_type = $2
		  AND NOT resolved AND NOT user_excluded
		  AND next_retry_at IS NOT NULL AND next_retry_at <= $3
		ORDER BY next_retry_at ASC
	`
	var rows []failureRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, string(sourceType), now); err != nil {
		return nil, fmt.Errorf("failed to list retry candidates: %w", err)
	}

	out := make([]*domain.SourceScanFailure, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// SetUserExcluded flips the exclusion flag on the unresolved failure.
func (r *ScanFailureRepo) SetUserExcluded(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
	resourcePath string,
	excluded bool,
	notes string,
) error {
	query := `
		UPDATE source_scan_failures
		SET user_excluded = $4,
		    user_notes = CASE WHEN $5 <> '' THEN $5 ELSE user_notes END
		WHERE user_id = $1 AND source_type = $2 AND resource_path = $3 AND NOT resolved
	`
	res, err := r.db.ExecContext(
		ctx, query, userID, string(sourceType), resourcePath, excluded, notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update exclusion: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrFailureNotFound
	}
	return nil
}

// ListUnresolved returns all unresolved failures for a user and source.
func (r *ScanFailureRepo) ListUnresolved(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
) ([]*domain.SourceScanFailure, error) {
	query := `
		SELECT ` + failureColumns + `
		FROM source_scan_failures
		WHERE user_id = $1 AND source_type = $2 AND NOT resolved
		ORDER BY last_failure_at DESC
	`
	var rows []failureRow
	if err := r.db.SelectContext(ctx, &rows, query, userID, string(sourceType)); err != nil {
		return nil, fmt.Errorf("failed to list scan failures: %w", err)
	}

	out := make([]*domain.SourceScanFailure, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

// CountUnresolved returns the number of unresolved failures.
func (r *ScanFailureRepo) CountUnresolved(
	ctx context.Context,
	userID string,
	sourceType domain.SourceType,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM source_scan_failures
		WHERE user_id = $1 AND source_type = $2 AND NOT resolved
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, string(sourceType)); err != nil {
		return 0, fmt.Errorf("failed to count scan failures: %w", err)
	}
	return count, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
