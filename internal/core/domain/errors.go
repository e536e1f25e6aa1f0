package domain

// ErrorType is the normalized category assigned to a source scan failure.
type ErrorType string

const (
	ErrorTypeTimeout              ErrorType = "timeout"
	ErrorTypePermissionDenied     ErrorType = "permission_denied"
	ErrorTypeNetworkError         ErrorType = "network_error"
	ErrorTypeServerError          ErrorType = "server_error"
	ErrorTypePathTooLong          ErrorType = "path_too_long"
	ErrorTypeInvalidCharacters    ErrorType = "invalid_characters"
	ErrorTypeTooManyItems         ErrorType = "too_many_items"
	ErrorTypeDepthLimit           ErrorType = "depth_limit"
	ErrorTypeSizeLimit            ErrorType = "size_limit"
	ErrorTypeXMLParseError        ErrorType = "xml_parse_error"
	ErrorTypeJSONParseError       ErrorType = "json_parse_error"
	ErrorTypeQuotaExceeded        ErrorType = "quota_exceeded"
	ErrorTypeRateLimited          ErrorType = "rate_limited"
	ErrorTypeNotFound             ErrorType = "not_found"
	ErrorTypeConflict             ErrorType = "conflict"
	ErrorTypeUnsupportedOperation ErrorType = "unsupported_operation"
	ErrorTypeUnknown              ErrorType = "unknown"
)

// ErrorSeverity drives retry policy. Severity, not the error type alone,
// decides whether a failure is worth retrying.
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "low"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityHigh     ErrorSeverity = "high"
	SeverityCritical ErrorSeverity = "critical"
)

// RetryStrategy selects how the retry delay grows with consecutive failures.
type RetryStrategy string

const (
	RetryExponential RetryStrategy = "exponential"
	RetryLinear      RetryStrategy = "linear"
	RetryFixed       RetryStrategy = "fixed"
)
