package classify

import (
	"strings"

	"github.com/readur/syncguard/internal/core/domain"
)

// GoogleDriveClassifier classifies failures from the Google Drive API.
type GoogleDriveClassifier struct {
	base
}

// NewGoogleDriveClassifier creates the Google Drive classifier.
func NewGoogleDriveClassifier() *GoogleDriveClassifier {
	return &GoogleDriveClassifier{base{domain.SourceGoogleDrive}}
}

func (c *GoogleDriveClassifier) ClassifyError(err error, ectx ErrorContext) domain.ErrorClassification {
	t := domain.ErrorTypeUnknown
	severity := domain.ErrorSeverity("")

	if err != nil {
		s := strings.ToLower(err.Error())
		switch {
		case strings.Contains(s, "invalid_grant") || strings.Contains(s, "invalid_client"):
			t = domain.ErrorTypePermissionDenied
			severity = domain.SeverityCritical // OAuth grant revoked or misconfigured
		case strings.Contains(s, "insufficientpermissions") ||
			strings.Contains(s, "forbidden") || strings.Contains(s, "403"):
			t = domain.ErrorTypePermissionDenied
		case strings.Contains(s, "userratelimitexceeded") ||
			strings.Contains(s, "ratelimitexceeded") ||
			strings.Contains(s, "too many requests"):
			t = domain.ErrorTypeRateLimited
		case strings.Contains(s, "storagequotaexceeded") || strings.Contains(s, "quotaexceeded"):
			t = domain.ErrorTypeQuotaExceeded
		case strings.Contains(s, "notfound") || strings.Contains(s, "file not found") ||
			strings.Contains(s, "404"):
			t = domain.ErrorTypeNotFound
		case strings.Contains(s, "backenderror") || strings.Contains(s, "internalerror") ||
			strings.Contains(s, "500") || strings.Contains(s, "503"):
			t = domain.ErrorTypeServerError
		case strings.Contains(s, "timeout") || strings.Contains(s, "timed out") ||
			strings.Contains(s, "deadline exceeded"):
			t = domain.ErrorTypeTimeout
		case strings.Contains(s, "connection") || strings.Contains(s, "network"):
			t = domain.ErrorTypeNetworkError
		case strings.Contains(s, "json") || strings.Contains(s, "unmarshal"):
			t = domain.ErrorTypeJSONParseError
		}
	}

	cl := classificationFor(t, err, ectx, c.ExtractDiagnostics(err, ectx))
	if severity != "" {
		cl.Severity = severity
	}
	return cl
}
