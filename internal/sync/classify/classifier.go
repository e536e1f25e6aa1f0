// Package classify converts opaque, source-specific scan errors into the
// uniform taxonomy used by the failure tracker. One classifier per source
// type, registered in a lookup keyed by SourceType; classification is pure
// and never panics on unrecognized input.
package classify

import (
	"fmt"
	"sync"
	"time"

	"github.com/readur/syncguard/internal/core/domain"
)

// SourceErrorClassifier maps raw errors from one source type into
// normalized classifications and derives user-facing output from persisted
// failure records.
type SourceErrorClassifier interface {
	// SourceType identifies the registry slot this classifier occupies.
	SourceType() domain.SourceType

	// ClassifyError maps a raw error plus context to exactly one
	// classification. Deterministic for the same error text and context;
	// unrecognized input classifies as unknown, never fails.
	ClassifyError(err error, ectx ErrorContext) domain.ErrorClassification

	// ExtractDiagnostics builds the troubleshooting bundle. Absent fields
	// are omitted; malformed input never causes an error.
	ExtractDiagnostics(err error, ectx ErrorContext) domain.Diagnostics

	// BuildUserFriendlyMessage derives a human message from the persisted
	// record alone, so the UI never needs to re-classify.
	BuildUserFriendlyMessage(f *domain.SourceScanFailure) string

	// ShouldRetry is the single source of truth for retry eligibility.
	ShouldRetry(f *domain.SourceScanFailure) bool
}

// ShouldRetry is the shared retry-eligibility policy: critical failures
// never retry; high/medium/low retry while failure_count stays below
// 2/5/10. Classifiers use this unless a source has reason to override.
func ShouldRetry(f *domain.SourceScanFailure) bool {
	if f == nil || !f.Retryable() {
		return false
	}
	switch f.ErrorSeverity {
	case domain.SeverityCritical:
		return false
	case domain.SeverityHigh:
		return f.FailureCount < 2
	case domain.SeverityMedium:
		return f.FailureCount < 5
	default:
		return f.FailureCount < 10
	}
}

// retryPolicy is the per-error-type backoff snapshot copied into each
// classification and persisted with the failure record.
type retryPolicy struct {
	Strategy   domain.RetryStrategy
	Delay      time.Duration
	MaxRetries int
}

var retryPolicies = map[domain.ErrorType]retryPolicy{
	domain.ErrorTypeTimeout:              {domain.RetryExponential, 60 * time.Second, 6},
	domain.ErrorTypePermissionDenied:     {domain.RetryFixed, time.Hour, 2},
	domain.ErrorTypeNetworkError:         {domain.RetryLinear, 30 * time.Second, 8},
	domain.ErrorTypeServerError:          {domain.RetryExponential, 2 * time.Minute, 5},
	domain.ErrorTypePathTooLong:          {domain.RetryFixed, 24 * time.Hour, 1},
	domain.ErrorTypeInvalidCharacters:    {domain.RetryFixed, 24 * time.Hour, 1},
	domain.ErrorTypeTooManyItems:         {domain.RetryLinear, 10 * time.Minute, 3},
	domain.ErrorTypeDepthLimit:           {domain.RetryFixed, time.Hour, 2},
	domain.ErrorTypeSizeLimit:            {domain.RetryFixed, time.Hour, 2},
	domain.ErrorTypeXMLParseError:        {domain.RetryFixed, 10 * time.Minute, 3},
	domain.ErrorTypeJSONParseError:       {domain.RetryFixed, 10 * time.Minute, 3},
	domain.ErrorTypeQuotaExceeded:        {domain.RetryExponential, time.Hour, 5},
	domain.ErrorTypeRateLimited:          {domain.RetryExponential, 20 * time.Minute, 10},
	domain.ErrorTypeNotFound:             {domain.RetryExponential, 5 * time.Minute, 3},
	domain.ErrorTypeConflict:             {domain.RetryLinear, time.Minute, 4},
	domain.ErrorTypeUnsupportedOperation: {domain.RetryFixed, 24 * time.Hour, 1},
	domain.ErrorTypeUnknown:              {domain.RetryExponential, 5 * time.Minute, 5},
}

func policyFor(t domain.ErrorType) retryPolicy {
	if p, ok := retryPolicies[t]; ok {
		return p
	}
	return retryPolicies[domain.ErrorTypeUnknown]
}

var defaultSeverities = map[domain.ErrorType]domain.ErrorSeverity{
	domain.ErrorTypeTimeout:              domain.SeverityMedium,
	domain.ErrorTypePermissionDenied:     domain.SeverityHigh,
	domain.ErrorTypeNetworkError:         domain.SeverityMedium,
	domain.ErrorTypeServerError:          domain.SeverityMedium,
	domain.ErrorTypePathTooLong:          domain.SeverityHigh,
	domain.ErrorTypeInvalidCharacters:    domain.SeverityHigh,
	domain.ErrorTypeTooManyItems:         domain.SeverityMedium,
	domain.ErrorTypeDepthLimit:           domain.SeverityMedium,
	domain.ErrorTypeSizeLimit:            domain.SeverityMedium,
	domain.ErrorTypeXMLParseError:        domain.SeverityMedium,
	domain.ErrorTypeJSONParseError:       domain.SeverityMedium,
	domain.ErrorTypeQuotaExceeded:        domain.SeverityHigh,
	domain.ErrorTypeRateLimited:          domain.SeverityLow,
	domain.ErrorTypeNotFound:             domain.SeverityMedium,
	domain.ErrorTypeConflict:             domain.SeverityLow,
	domain.ErrorTypeUnsupportedOperation: domain.SeverityHigh,
	domain.ErrorTypeUnknown:              domain.SeverityMedium,
}

func severityFor(t domain.ErrorType) domain.ErrorSeverity {
	if s, ok := defaultSeverities[t]; ok {
		return s
	}
	return domain.SeverityMedium
}

var recommendedActions = map[domain.ErrorType]string{
	domain.ErrorTypeTimeout:              "Check server load and network latency, then let the scan retry.",
	domain.ErrorTypePermissionDenied:     "Verify the credentials and access rights configured for this source.",
	domain.ErrorTypeNetworkError:         "Check network connectivity to the source; the scan retries automatically.",
	domain.ErrorTypeServerError:          "The remote server reported an internal error; retry later or contact its operator.",
	domain.ErrorTypePathTooLong:          "Shorten the directory path on the remote or exclude it from syncing.",
	domain.ErrorTypeInvalidCharacters:    "Rename the resource to remove unsupported characters, or exclude it.",
	domain.ErrorTypeTooManyItems:         "Split the directory into smaller ones or raise the item limit.",
	domain.ErrorTypeDepthLimit:           "Flatten the hierarchy or raise the configured depth limit.",
	domain.ErrorTypeSizeLimit:            "The resource exceeds the configured size limit; adjust the limit or exclude it.",
	domain.ErrorTypeXMLParseError:        "The server returned malformed XML; check its version and compatibility.",
	domain.ErrorTypeJSONParseError:       "The API returned malformed JSON; check for version incompatibilities.",
	domain.ErrorTypeQuotaExceeded:        "Free up storage on the remote account or raise its quota.",
	domain.ErrorTypeRateLimited:          "The remote is throttling requests; scans back off automatically.",
	domain.ErrorTypeNotFound:             "The resource no longer exists; remove it from the sync configuration if permanent.",
	domain.ErrorTypeConflict:             "Another client holds a lock or edit on this resource; retry later.",
	domain.ErrorTypeUnsupportedOperation: "The server does not support this operation; check source type configuration.",
	domain.ErrorTypeUnknown:              "Inspect the diagnostics attached to this failure for details.",
}

// classificationFor assembles a classification from the shared policy
// tables. Source classifiers call this after resolving the error type, then
// override severity where source context demands it.
func classificationFor(t domain.ErrorType, err error, ectx ErrorContext, diags domain.Diagnostics) domain.ErrorClassification {
	p := policyFor(t)
	return domain.ErrorClassification{
		ErrorType:         t,
		Severity:          severityFor(t),
		RetryStrategy:     p.Strategy,
		RetryDelay:        p.Delay,
		MaxRetries:        p.MaxRetries,
		UserMessage:       userMessage(t, ectx.ResourcePath),
		RecommendedAction: recommendedActions[t],
		Diagnostics:       diags,
	}
}

func userMessage(t domain.ErrorType, path string) string {
	if path == "" {
		path = "this resource"
	}
	switch t {
	case domain.ErrorTypeTimeout:
		return fmt.Sprintf("Scanning %s timed out.", path)
	case domain.ErrorTypePermissionDenied:
		return fmt.Sprintf("Access to %s was denied.", path)
	case domain.ErrorTypeNetworkError:
		return fmt.Sprintf("A network error interrupted the scan of %s.", path)
	case domain.ErrorTypeServerError:
		return fmt.Sprintf("The server failed while scanning %s.", path)
	case domain.ErrorTypeRateLimited:
		return fmt.Sprintf("The server is rate limiting scans of %s.", path)
	case domain.ErrorTypeQuotaExceeded:
		return fmt.Sprintf("The storage quota was exceeded while scanning %s.", path)
	case domain.ErrorTypeNotFound:
		return fmt.Sprintf("%s was not found on the server.", path)
	case domain.ErrorTypeConflict:
		return fmt.Sprintf("%s is locked or being modified by another client.", path)
	case domain.ErrorTypeXMLParseError, domain.ErrorTypeJSONParseError:
		return fmt.Sprintf("The server returned an unreadable response for %s.", path)
	default:
		return fmt.Sprintf("Scanning %s failed (%s).", path, t)
	}
}

// baseDiagnostics builds the diagnostic fields every source shares.
// Zero-valued context fields are omitted.
func baseDiagnostics(err error, ectx ErrorContext) domain.Diagnostics {
	d := domain.Diagnostics{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		d["error"] = err.Error()
	}
	if ectx.Operation != "" {
		d["operation"] = ectx.Operation
	}
	if ectx.ResourcePath != "" {
		d["resource_path"] = ectx.ResourcePath
	}
	if ectx.SourceID != "" {
		d["source_id"] = ectx.SourceID
	}
	if ectx.ResponseTime > 0 {
		d["response_time_ms"] = ectx.ResponseTime.Milliseconds()
	}
	if ectx.ResponseSize > 0 {
		d["response_size"] = ectx.ResponseSize
	}
	if ectx.ServerType != "" {
		d["server_type"] = ectx.ServerType
	}
	if ectx.ServerVersion != "" {
		d["server_version"] = ectx.ServerVersion
	}
	for k, v := range ectx.Additional {
		d[k] = v
	}
	return d
}

// base provides the shared pieces of every classifier. Source
// implementations embed it and supply ClassifyError.
type base struct {
	sourceType domain.SourceType
}

func (b base) SourceType() domain.SourceType { return b.sourceType }

func (b base) ExtractDiagnostics(err error, ectx ErrorContext) domain.Diagnostics {
	return baseDiagnostics(err, ectx)
}

func (b base) BuildUserFriendlyMessage(f *domain.SourceScanFailure) string {
	if f == nil {
		return ""
	}
	return userMessage(f.ErrorType, f.ResourcePath)
}

func (b base) ShouldRetry(f *domain.SourceScanFailure) bool {
	return ShouldRetry(f)
}

// Registry is the SourceType -> classifier lookup. Unregistered source
// types fall back to the generic classifier so classification never fails.
type Registry struct {
	mu          sync.RWMutex
	classifiers map[domain.SourceType]SourceErrorClassifier
	fallback    SourceErrorClassifier
}

// NewRegistry creates an empty registry with the generic fallback.
func NewRegistry() *Registry {
	return &Registry{
		classifiers: make(map[domain.SourceType]SourceErrorClassifier),
		fallback:    NewGenericClassifier(),
	}
}

// DefaultRegistry returns a registry with every built-in classifier
// registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewWebDAVClassifier())
	r.Register(NewS3Classifier())
	r.Register(NewLocalClassifier())
	r.Register(NewDropboxClassifier())
	r.Register(NewGoogleDriveClassifier())
	r.Register(NewOneDriveClassifier())
	return r
}

// Register adds or replaces the classifier for its source type.
func (r *Registry) Register(c SourceErrorClassifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classifiers[c.SourceType()] = c
}

// For returns the classifier for the given source type, or the generic
// fallback when none is registered.
func (r *Registry) For(st domain.SourceType) SourceErrorClassifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.classifiers[st]; ok {
		return c
	}
	return r.fallback
}
