package classify

import (
	"regexp"
	"strings"

	"github.com/readur/syncguard/internal/core/domain"
)

// WebDAVClassifier classifies failures from WebDAV servers. Matching is on
// normalized error text: HTTP status substrings plus the PROPFIND/XML
// vocabulary WebDAV stacks produce.
type WebDAVClassifier struct {
	base
}

// NewWebDAVClassifier creates the WebDAV classifier.
func NewWebDAVClassifier() *WebDAVClassifier {
	return &WebDAVClassifier{base{domain.SourceWebDAV}}
}

var httpStatusRe = regexp.MustCompile(`\b([1-5][0-9]{2})\b`)

func (c *WebDAVClassifier) ClassifyError(err error, ectx ErrorContext) domain.ErrorClassification {
	t := domain.ErrorTypeUnknown
	severity := domain.ErrorSeverity("")

	if err != nil {
		s := strings.ToLower(err.Error())
		switch {
		case strings.Contains(s, "401") || strings.Contains(s, "unauthorized"):
			t = domain.ErrorTypePermissionDenied
			severity = domain.SeverityCritical // bad credentials never fix themselves
		case strings.Contains(s, "403") || strings.Contains(s, "forbidden") ||
			strings.Contains(s, "permission denied"):
			t = domain.ErrorTypePermissionDenied
		case strings.Contains(s, "404") || strings.Contains(s, "not found"):
			t = domain.ErrorTypeNotFound
		case strings.Contains(s, "405") || strings.Contains(s, "method not allowed"):
			t = domain.ErrorTypeUnsupportedOperation
		case strings.Contains(s, "423") || strings.Contains(s, "locked") ||
			strings.Contains(s, "409") || strings.Contains(s, "conflict"):
			t = domain.ErrorTypeConflict
		case strings.Contains(s, "414") || strings.Contains(s, "uri too long") ||
			strings.Contains(s, "path too long"):
			t = domain.ErrorTypePathTooLong
		case strings.Contains(s, "429") || strings.Contains(s, "too many requests"):
			t = domain.ErrorTypeRateLimited
		case strings.Contains(s, "507") || strings.Contains(s, "insufficient storage") ||
			strings.Contains(s, "quota"):
			t = domain.ErrorTypeQuotaExceeded
		case strings.Contains(s, "500") || strings.Contains(s, "502") ||
			strings.Contains(s, "503") || strings.Contains(s, "504") ||
			strings.Contains(s, "internal server error") ||
			strings.Contains(s, "bad gateway") ||
			strings.Contains(s, "service unavailable"):
			t = domain.ErrorTypeServerError
		case strings.Contains(s, "timeout") || strings.Contains(s, "timed out") ||
			strings.Contains(s, "deadline exceeded"):
			t = domain.ErrorTypeTimeout
		case strings.Contains(s, "connection refused") || strings.Contains(s, "no such host") ||
			strings.Contains(s, "network") || strings.Contains(s, "eof") ||
			strings.Contains(s, "reset by peer"):
			t = domain.ErrorTypeNetworkError
		case strings.Contains(s, "xml") || strings.Contains(s, "parse") ||
			strings.Contains(s, "malformed"):
			t = domain.ErrorTypeXMLParseError
		}
	}

	cl := classificationFor(t, err, ectx, c.ExtractDiagnostics(err, ectx))
	if severity != "" {
		cl.Severity = severity
	}
	return cl
}

// ExtractDiagnostics adds the HTTP status code when one appears in the
// error text.
func (c *WebDAVClassifier) ExtractDiagnostics(err error, ectx ErrorContext) domain.Diagnostics {
	d := baseDiagnostics(err, ectx)
	if err != nil {
		if m := httpStatusRe.FindStringSubmatch(err.Error()); m != nil {
			d["http_status"] = m[1]
		}
	}
	return d
}
