package classify

import (
	"strings"

	"github.com/readur/syncguard/internal/core/domain"
)

// DropboxClassifier classifies failures from the Dropbox API, matching its
// snake_case error tag vocabulary.
type DropboxClassifier struct {
	base
}

// NewDropboxClassifier creates the Dropbox classifier.
func NewDropboxClassifier() *DropboxClassifier {
	return &DropboxClassifier{base{domain.SourceDropbox}}
}

func (c *DropboxClassifier) ClassifyError(err error, ectx ErrorContext) domain.ErrorClassification {
	t := domain.ErrorTypeUnknown
	severity := domain.ErrorSeverity("")

	if err != nil {
		s := strings.ToLower(err.Error())
		switch {
		case strings.Contains(s, "invalid_access_token") ||
			strings.Contains(s, "expired_access_token"):
			t = domain.ErrorTypePermissionDenied
			severity = domain.SeverityCritical
		case strings.Contains(s, "insufficient_permissions") ||
			strings.Contains(s, "no_permission"):
			t = domain.ErrorTypePermissionDenied
		case strings.Contains(s, "too_many_requests") ||
			strings.Contains(s, "too_many_write_operations") ||
			strings.Contains(s, "rate limit"):
			t = domain.ErrorTypeRateLimited
		case strings.Contains(s, "insufficient_space"):
			t = domain.ErrorTypeQuotaExceeded
		case strings.Contains(s, "malformed_path"):
			t = domain.ErrorTypeInvalidCharacters
		case strings.Contains(s, "not_found"):
			t = domain.ErrorTypeNotFound
		case strings.Contains(s, "conflict"):
			t = domain.ErrorTypeConflict
		case strings.Contains(s, "timeout") || strings.Contains(s, "timed out"):
			t = domain.ErrorTypeTimeout
		case strings.Contains(s, "connection") || strings.Contains(s, "network"):
			t = domain.ErrorTypeNetworkError
		case strings.Contains(s, "internal_error") || strings.Contains(s, "500") ||
			strings.Contains(s, "503"):
			t = domain.ErrorTypeServerError
		case strings.Contains(s, "json") || strings.Contains(s, "unmarshal") ||
			strings.Contains(s, "unexpected end of"):
			t = domain.ErrorTypeJSONParseError
		}
	}

	cl := classificationFor(t, err, ectx, c.ExtractDiagnostics(err, ectx))
	if severity != "" {
		cl.Severity = severity
	}
	return cl
}
