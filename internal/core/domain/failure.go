package domain

import "time"

// Diagnostics is the schemaless troubleshooting payload attached to a
// failure record. Stored as JSONB in Postgres.
type Diagnostics map[string]any

// SourceScanFailure is the durable failure record for one resource path,
// keyed by (UserID, SourceType, ResourcePath).
type SourceScanFailure struct {
	ID           string     `json:"id"            db:"id"`
	UserID       string     `json:"user_id"       db:"user_id"`
	SourceType   SourceType `json:"source_type"   db:"source_type"`
	SourceID     string     `json:"source_id"     db:"source_id"`
	ResourcePath string     `json:"resource_path" db:"resource_path"`

	ErrorType     ErrorType     `json:"error_type"     db:"error_type"`
	ErrorSeverity ErrorSeverity `json:"error_severity" db:"error_severity"`
	ErrorMessage  string        `json:"error_message"  db:"error_message"`

	FailureCount        int `json:"failure_count"        db:"failure_count"`
	ConsecutiveFailures int `json:"consecutive_failures" db:"consecutive_failures"`

	FirstFailureAt time.Time  `json:"first_failure_at" db:"first_failure_at"`
	LastFailureAt  time.Time  `json:"last_failure_at"  db:"last_failure_at"`
	LastRetryAt    *time.Time `json:"last_retry_at"    db:"last_retry_at"`
	NextRetryAt    *time.Time `json:"next_retry_at"    db:"next_retry_at"`

	Diagnostics Diagnostics `json:"diagnostics" db:"-"`

	UserExcluded bool   `json:"user_excluded" db:"user_excluded"`
	UserNotes    string `json:"user_notes"    db:"user_notes"`

	RetryStrategy     RetryStrategy `json:"retry_strategy"      db:"retry_strategy"`
	MaxRetries        int           `json:"max_retries"         db:"max_retries"`
	RetryDelaySeconds int           `json:"retry_delay_seconds" db:"retry_delay_seconds"`

	Resolved         bool       `json:"resolved"          db:"resolved"`
	ResolvedAt       *time.Time `json:"resolved_at"       db:"resolved_at"`
	ResolutionMethod string     `json:"resolution_method" db:"resolution_method"`
}

// Retryable reports whether automatic retry is still allowed for this
// record. NextRetryAt is only meaningful while this holds.
func (f *SourceScanFailure) Retryable() bool {
	return !f.Resolved && !f.UserExcluded
}

// CreateScanFailure is the upsert payload built by the failure tracker
// after classification. On conflict with an unresolved record the store
// increments the counters instead of inserting.
type CreateScanFailure struct {
	UserID       string
	SourceType   SourceType
	SourceID     string
	ResourcePath string

	ErrorType     ErrorType
	ErrorSeverity ErrorSeverity
	ErrorMessage  string

	Diagnostics Diagnostics

	RetryStrategy     RetryStrategy
	MaxRetries        int
	RetryDelaySeconds int
	NextRetryAt       *time.Time
}
