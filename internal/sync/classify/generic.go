package classify

import (
	"strings"

	"github.com/readur/syncguard/internal/core/domain"
)

// GenericClassifier handles source types without a dedicated classifier.
// It recognizes only vocabulary common to every transport.
type GenericClassifier struct {
	base
}

// NewGenericClassifier creates the fallback classifier.
func NewGenericClassifier() *GenericClassifier {
	return &GenericClassifier{}
}

func (c *GenericClassifier) ClassifyError(err error, ectx ErrorContext) domain.ErrorClassification {
	t := domain.ErrorTypeUnknown
	if err != nil {
		s := strings.ToLower(err.Error())
		switch {
		case strings.Contains(s, "timeout") || strings.Contains(s, "timed out") ||
			strings.Contains(s, "deadline exceeded"):
			t = domain.ErrorTypeTimeout
		case strings.Contains(s, "permission") || strings.Contains(s, "unauthorized") ||
			strings.Contains(s, "forbidden") || strings.Contains(s, "access denied"):
			t = domain.ErrorTypePermissionDenied
		case strings.Contains(s, "connection") || strings.Contains(s, "no such host") ||
			strings.Contains(s, "network") || strings.Contains(s, "broken pipe") ||
			strings.Contains(s, "reset by peer"):
			t = domain.ErrorTypeNetworkError
		case strings.Contains(s, "rate limit") || strings.Contains(s, "too many requests"):
			t = domain.ErrorTypeRateLimited
		case strings.Contains(s, "quota"):
			t = domain.ErrorTypeQuotaExceeded
		case strings.Contains(s, "not found") || strings.Contains(s, "does not exist"):
			t = domain.ErrorTypeNotFound
		}
	}
	return classificationFor(t, err, ectx, c.ExtractDiagnostics(err, ectx))
}
