package classify

import (
	"strings"

	"github.com/readur/syncguard/internal/core/domain"
)

// OneDriveClassifier classifies failures from the Microsoft Graph / OneDrive
// API, matching its camelCase error-code vocabulary.
type OneDriveClassifier struct {
	base
}

// NewOneDriveClassifier creates the OneDrive classifier.
func NewOneDriveClassifier() *OneDriveClassifier {
	return &OneDriveClassifier{base{domain.SourceOneDrive}}
}

func (c *OneDriveClassifier) ClassifyError(err error, ectx ErrorContext) domain.ErrorClassification {
	t := domain.ErrorTypeUnknown
	severity := domain.ErrorSeverity("")

	if err != nil {
		s := strings.ToLower(err.Error())
		switch {
		case strings.Contains(s, "unauthenticated") || strings.Contains(s, "invalidauthenticationtoken"):
			t = domain.ErrorTypePermissionDenied
			severity = domain.SeverityCritical
		case strings.Contains(s, "accessdenied") || strings.Contains(s, "notallowed"):
			t = domain.ErrorTypePermissionDenied
		case strings.Contains(s, "activitylimitreached") ||
			strings.Contains(s, "too many requests") || strings.Contains(s, "429"):
			t = domain.ErrorTypeRateLimited
		case strings.Contains(s, "quotalimitreached") || strings.Contains(s, "quota"):
			t = domain.ErrorTypeQuotaExceeded
		case strings.Contains(s, "itemnotfound") || strings.Contains(s, "resourcenotfound") ||
			strings.Contains(s, "404"):
			t = domain.ErrorTypeNotFound
		case strings.Contains(s, "namealreadyexists") || strings.Contains(s, "resourcemodified") ||
			strings.Contains(s, "resyncrequired"):
			t = domain.ErrorTypeConflict
		case strings.Contains(s, "malwaredetected") || strings.Contains(s, "notsupported"):
			t = domain.ErrorTypeUnsupportedOperation
		case strings.Contains(s, "serviceunavailable") || strings.Contains(s, "generalexception") ||
			strings.Contains(s, "500") || strings.Contains(s, "503"):
			t = domain.ErrorTypeServerError
		case strings.Contains(s, "timeout") || strings.Contains(s, "timed out"):
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
