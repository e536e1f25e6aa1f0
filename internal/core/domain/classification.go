package domain

import "time"

// ErrorClassification is the normalized output of classifying one raw
// source error. It is a pure value: classifying the same error text and
// context twice yields an identical classification.
type ErrorClassification struct {
	ErrorType         ErrorType
	Severity          ErrorSeverity
	RetryStrategy     RetryStrategy
	RetryDelay        time.Duration
	MaxRetries        int
	UserMessage       string
	RecommendedAction string
	Diagnostics       Diagnostics
}
