package classify

import (
	"regexp"
	"strings"

	"github.com/readur/syncguard/internal/core/domain"
)

// S3Classifier classifies failures from S3-compatible object stores using
// the AWS error-code vocabulary ("NoSuchBucket", "SlowDown", ...).
// Severity is bucket-aware: a missing bucket is an unrecoverable
// misconfiguration, a missing object may be a transient race.
type S3Classifier struct {
	base
}

// NewS3Classifier creates the S3 classifier.
func NewS3Classifier() *S3Classifier {
	return &S3Classifier{base{domain.SourceS3}}
}

var (
	s3BucketRe = regexp.MustCompile(`(?i)bucket[:\s'"]+([a-z0-9][a-z0-9.-]{1,61}[a-z0-9])`)
	s3RegionRe = regexp.MustCompile(`(?i)region[:\s'"]+([a-z]{2}-[a-z]+-[0-9])`)
)

func (c *S3Classifier) ClassifyError(err error, ectx ErrorContext) domain.ErrorClassification {
	t := domain.ErrorTypeUnknown
	severity := domain.ErrorSeverity("")

	if err != nil {
		s := strings.ToLower(err.Error())
		switch {
		case strings.Contains(s, "nosuchbucket"):
			t = domain.ErrorTypeNotFound
			severity = domain.SeverityCritical // the whole source is misconfigured
		case strings.Contains(s, "nosuchkey") || strings.Contains(s, "not found") ||
			strings.Contains(s, "404"):
			t = domain.ErrorTypeNotFound
		case strings.Contains(s, "invalidaccesskeyid") ||
			strings.Contains(s, "signaturedoesnotmatch") ||
			strings.Contains(s, "expiredtoken"):
			t = domain.ErrorTypePermissionDenied
			severity = domain.SeverityCritical
		case strings.Contains(s, "accessdenied") || strings.Contains(s, "access denied") ||
			strings.Contains(s, "403"):
			t = domain.ErrorTypePermissionDenied
		case strings.Contains(s, "slowdown") || strings.Contains(s, "throttl") ||
			strings.Contains(s, "rate exceeded") || strings.Contains(s, "toomanyrequests"):
			t = domain.ErrorTypeRateLimited
		case strings.Contains(s, "quota") || strings.Contains(s, "storage limit"):
			t = domain.ErrorTypeQuotaExceeded
		case strings.Contains(s, "requesttimeout") || strings.Contains(s, "timeout") ||
			strings.Contains(s, "timed out"):
			t = domain.ErrorTypeTimeout
		case strings.Contains(s, "connection") || strings.Contains(s, "no such host") ||
			strings.Contains(s, "network") || strings.Contains(s, "dns"):
			t = domain.ErrorTypeNetworkError
		case strings.Contains(s, "internalerror") || strings.Contains(s, "serviceunavailable") ||
			strings.Contains(s, "503") || strings.Contains(s, "500"):
			t = domain.ErrorTypeServerError
		case strings.Contains(s, "keytoolong") || strings.Contains(s, "key too long"):
			t = domain.ErrorTypePathTooLong
		case strings.Contains(s, "xml") || strings.Contains(s, "malformed"):
			t = domain.ErrorTypeXMLParseError
		}
	}

	cl := classificationFor(t, err, ectx, c.ExtractDiagnostics(err, ectx))
	if severity != "" {
		cl.Severity = severity
	}
	return cl
}

// ExtractDiagnostics regex-extracts the bucket name, region, and HTTP
// status when they appear in the error text.
func (c *S3Classifier) ExtractDiagnostics(err error, ectx ErrorContext) domain.Diagnostics {
	d := baseDiagnostics(err, ectx)
	if err == nil {
		return d
	}
	s := err.Error()
	if m := s3BucketRe.FindStringSubmatch(s); m != nil {
		d["bucket"] = m[1]
	}
	if m := s3RegionRe.FindStringSubmatch(s); m != nil {
		d["region"] = m[1]
	}
	if m := httpStatusRe.FindStringSubmatch(s); m != nil {
		d["http_status"] = m[1]
	}
	return d
}
