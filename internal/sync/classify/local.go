package classify

import (
	"strings"

	"github.com/readur/syncguard/internal/core/domain"
)

// LocalClassifier classifies failures from local-folder sources, matching
// the errno vocabulary surfaced by the os package.
type LocalClassifier struct {
	base
}

// NewLocalClassifier creates the local-folder classifier.
func NewLocalClassifier() *LocalClassifier {
	return &LocalClassifier{base{domain.SourceLocalFolder}}
}

func (c *LocalClassifier) ClassifyError(err error, ectx ErrorContext) domain.ErrorClassification {
	t := domain.ErrorTypeUnknown
	severity := domain.ErrorSeverity("")

	if err != nil {
		s := strings.ToLower(err.Error())
		switch {
		case strings.Contains(s, "no such file or directory"):
			t = domain.ErrorTypeNotFound
		case strings.Contains(s, "permission denied") ||
			strings.Contains(s, "operation not permitted"):
			t = domain.ErrorTypePermissionDenied
		case strings.Contains(s, "file name too long"):
			t = domain.ErrorTypePathTooLong
		case strings.Contains(s, "invalid argument"):
			t = domain.ErrorTypeInvalidCharacters
		case strings.Contains(s, "too many open files"):
			t = domain.ErrorTypeTooManyItems
		case strings.Contains(s, "too many levels of symbolic links"):
			// ELOOP from the kernel: the filesystem itself hit the cycle.
			t = domain.ErrorTypeDepthLimit
			severity = domain.SeverityHigh
		case strings.Contains(s, "not a directory"):
			t = domain.ErrorTypeUnsupportedOperation
		case strings.Contains(s, "no space left"):
			t = domain.ErrorTypeQuotaExceeded
		case strings.Contains(s, "input/output error"):
			t = domain.ErrorTypeServerError
			severity = domain.SeverityHigh // likely failing disk
		case strings.Contains(s, "stale nfs") || strings.Contains(s, "host is down") ||
			strings.Contains(s, "connection"):
			t = domain.ErrorTypeNetworkError
		case strings.Contains(s, "timeout") || strings.Contains(s, "timed out"):
			t = domain.ErrorTypeTimeout
		}
	}

	cl := classificationFor(t, err, ectx, c.ExtractDiagnostics(err, ectx))
	if severity != "" {
		cl.Severity = severity
	}
	return cl
}
