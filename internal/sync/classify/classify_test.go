package classify

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/readur/syncguard/internal/core/domain"
)

func TestS3Classifier_Scenarios(t *testing.T) {
	c := NewS3Classifier()

	tests := []struct {
		name         string
		errText      string
		path         string
		wantType     domain.ErrorType
		wantSeverity domain.ErrorSeverity
		wantStrategy domain.RetryStrategy
		wantDelay    time.Duration
		wantRetries  int
	}{
		{
			name:         "missing bucket is critical",
			errText:      "NoSuchBucket: The specified bucket does not exist, bucket: documents-prod",
			path:         "s3://documents-prod/bucket",
			wantType:     domain.ErrorTypeNotFound,
			wantSeverity: domain.SeverityCritical,
			wantStrategy: domain.RetryExponential,
		},
		{
			name:         "slowdown is low-severity rate limiting",
			errText:      "SlowDown: Please reduce your request rate",
			path:         "s3://documents-prod/inbox",
			wantType:     domain.ErrorTypeRateLimited,
			wantSeverity: domain.SeverityLow,
			wantStrategy: domain.RetryExponential,
			wantDelay:    1200 * time.Second,
			wantRetries:  10,
		},
		{
			name:         "missing object is medium",
			errText:      "NoSuchKey: The specified key does not exist",
			path:         "s3://documents-prod/inbox/a.pdf",
			wantType:     domain.ErrorTypeNotFound,
			wantSeverity: domain.SeverityMedium,
			wantStrategy: domain.RetryExponential,
		},
		{
			name:         "bad credentials are critical",
			errText:      "InvalidAccessKeyId: The AWS Access Key Id you provided does not exist",
			wantType:     domain.ErrorTypePermissionDenied,
			wantSeverity: domain.SeverityCritical,
			wantStrategy: domain.RetryFixed,
		},
		{
			name:         "access denied on prefix is high",
			errText:      "AccessDenied: Access Denied",
			wantType:     domain.ErrorTypePermissionDenied,
			wantSeverity: domain.SeverityHigh,
			wantStrategy: domain.RetryFixed,
		},
		{
			name:         "unrecognized text is unknown",
			errText:      "something completely unexpected happened",
			wantType:     domain.ErrorTypeUnknown,
			wantSeverity: domain.SeverityMedium,
			wantStrategy: domain.RetryExponential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ectx := NewErrorContext("list_directory", tt.path)
			cl := c.ClassifyError(errors.New(tt.errText), ectx)

			if cl.ErrorType != tt.wantType {
				t.Errorf("error type = %s, want %s", cl.ErrorType, tt.wantType)
			}
			if cl.Severity != tt.wantSeverity {
				t.Errorf("severity = %s, want %s", cl.Severity, tt.wantSeverity)
			}
			if cl.RetryStrategy != tt.wantStrategy {
				t.Errorf("strategy = %s, want %s", cl.RetryStrategy, tt.wantStrategy)
			}
			if tt.wantDelay > 0 && cl.RetryDelay != tt.wantDelay {
				t.Errorf("delay = %s, want %s", cl.RetryDelay, tt.wantDelay)
			}
			if tt.wantRetries > 0 && cl.MaxRetries != tt.wantRetries {
				t.Errorf("max retries = %d, want %d", cl.MaxRetries, tt.wantRetries)
			}
			if cl.UserMessage == "" || cl.RecommendedAction == "" {
				t.Error("classification must carry a user message and recommended action")
			}
		})
	}
}

func TestS3Classifier_Diagnostics(t *testing.T) {
	c := NewS3Classifier()
	err := errors.New("NoSuchBucket: 404, bucket: documents-prod, region: eu-west-1")
	ectx := NewErrorContext("list_directory", "s3://documents-prod/inbox").
		WithSourceID("src-1").
		WithResponseTime(150 * time.Millisecond).
		WithResponseSize(512)

	d := c.ExtractDiagnostics(err, ectx)

	if d["bucket"] != "documents-prod" {
		t.Errorf("bucket = %v, want documents-prod", d["bucket"])
	}
	if d["region"] != "eu-west-1" {
		t.Errorf("region = %v, want eu-west-1", d["region"])
	}
	if d["http_status"] != "404" {
		t.Errorf("http_status = %v, want 404", d["http_status"])
	}
	if d["operation"] != "list_directory" {
		t.Errorf("operation = %v, want list_directory", d["operation"])
	}
	if _, ok := d["timestamp"]; !ok {
		t.Error("diagnostics must include a timestamp")
	}
	if d["response_time_ms"] != int64(150) {
		t.Errorf("response_time_ms = %v, want 150", d["response_time_ms"])
	}
}

func TestWebDAVClassifier(t *testing.T) {
	c := NewWebDAVClassifier()

	tests := []struct {
		errText  string
		wantType domain.ErrorType
	}{
		{"PROPFIND failed: 401 Unauthorized", domain.ErrorTypePermissionDenied},
		{"PROPFIND failed: 404 Not Found", domain.ErrorTypeNotFound},
		{"server returned 423 Locked", domain.ErrorTypeConflict},
		{"PROPFIND failed: 429 Too Many Requests", domain.ErrorTypeRateLimited},
		{"507 Insufficient Storage", domain.ErrorTypeQuotaExceeded},
		{"502 Bad Gateway", domain.ErrorTypeServerError},
		{"context deadline exceeded", domain.ErrorTypeTimeout},
		{"dial tcp: connection refused", domain.ErrorTypeNetworkError},
		{"XML syntax error on line 3: unexpected EOF", domain.ErrorTypeXMLParseError},
		{"completely inscrutable", domain.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.errText, func(t *testing.T) {
			cl := c.ClassifyError(errors.New(tt.errText), NewErrorContext("list_directory", "/dav/docs"))
			if cl.ErrorType != tt.wantType {
				t.Errorf("ClassifyError(%q) = %s, want %s", tt.errText, cl.ErrorType, tt.wantType)
			}
		})
	}
}

func TestWebDAV_UnauthorizedIsCritical(t *testing.T) {
	c := NewWebDAVClassifier()
	cl := c.ClassifyError(errors.New("401 Unauthorized"), NewErrorContext("list_directory", "/dav"))
	if cl.Severity != domain.SeverityCritical {
		t.Errorf("severity = %s, want critical", cl.Severity)
	}
}

func TestLocalClassifier(t *testing.T) {
	c := NewLocalClassifier()

	tests := []struct {
		errText  string
		wantType domain.ErrorType
	}{
		{"open /data/in: no such file or directory", domain.ErrorTypeNotFound},
		{"open /data/in: permission denied", domain.ErrorTypePermissionDenied},
		{"open /data/in: file name too long", domain.ErrorTypePathTooLong},
		{"readdir: too many open files", domain.ErrorTypeTooManyItems},
		{"open /data/link: too many levels of symbolic links", domain.ErrorTypeDepthLimit},
		{"read /data/x: input/output error", domain.ErrorTypeServerError},
		{"write: no space left on device", domain.ErrorTypeQuotaExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.errText, func(t *testing.T) {
			cl := c.ClassifyError(errors.New(tt.errText), NewErrorContext("list_directory", "/data/in"))
			if cl.ErrorType != tt.wantType {
				t.Errorf("ClassifyError(%q) = %s, want %s", tt.errText, cl.ErrorType, tt.wantType)
			}
		})
	}
}

func TestClassification_Deterministic(t *testing.T) {
	for _, c := range []SourceErrorClassifier{
		NewWebDAVClassifier(), NewS3Classifier(), NewLocalClassifier(),
		NewDropboxClassifier(), NewGoogleDriveClassifier(), NewOneDriveClassifier(),
	} {
		err := errors.New("SlowDown: reduce request rate, 503")
		ectx := NewErrorContext("list_directory", "/x").WithSourceID("s")

		a := c.ClassifyError(err, ectx)
		b := c.ClassifyError(err, ectx)

		// Diagnostics carry a wall-clock timestamp; everything else must match.
		if a.ErrorType != b.ErrorType || a.Severity != b.Severity ||
			a.RetryStrategy != b.RetryStrategy || a.RetryDelay != b.RetryDelay ||
			a.MaxRetries != b.MaxRetries || a.UserMessage != b.UserMessage ||
			a.RecommendedAction != b.RecommendedAction {
			t.Errorf("%s: classification not deterministic: %+v vs %+v",
				c.SourceType(), a, b)
		}
	}
}

func TestClassify_NilAndEmptyErrors(t *testing.T) {
	reg := DefaultRegistry()
	for _, st := range []domain.SourceType{
		domain.SourceWebDAV, domain.SourceS3, domain.SourceLocalFolder,
		domain.SourceDropbox, domain.SourceGoogleDrive, domain.SourceOneDrive,
	} {
		c := reg.For(st)
		cl := c.ClassifyError(nil, NewErrorContext("", ""))
		if cl.ErrorType != domain.ErrorTypeUnknown {
			t.Errorf("%s: nil error should classify as unknown, got %s", st, cl.ErrorType)
		}
		cl = c.ClassifyError(errors.New(""), ErrorContext{})
		if cl.ErrorType != domain.ErrorTypeUnknown {
			t.Errorf("%s: empty error should classify as unknown, got %s", st, cl.ErrorType)
		}
	}
}

func TestShouldRetry_Thresholds(t *testing.T) {
	tests := []struct {
		severity domain.ErrorSeverity
		count    int
		want     bool
	}{
		{domain.SeverityCritical, 0, false},
		{domain.SeverityCritical, 1, false},
		{domain.SeverityHigh, 1, true},
		{domain.SeverityHigh, 2, false},
		{domain.SeverityMedium, 4, true},
		{domain.SeverityMedium, 5, false},
		{domain.SeverityLow, 9, true},
		{domain.SeverityLow, 10, false},
	}

	for _, tt := range tests {
		f := &domain.SourceScanFailure{
			ErrorSeverity: tt.severity,
			FailureCount:  tt.count,
		}
		if got := ShouldRetry(f); got != tt.want {
			t.Errorf("ShouldRetry(%s, count=%d) = %v, want %v",
				tt.severity, tt.count, got, tt.want)
		}
	}
}

func TestShouldRetry_ResolvedAndExcluded(t *testing.T) {
	f := &domain.SourceScanFailure{ErrorSeverity: domain.SeverityLow, FailureCount: 1}

	f.Resolved = true
	if ShouldRetry(f) {
		t.Error("resolved failures must not retry")
	}

	f.Resolved = false
	f.UserExcluded = true
	if ShouldRetry(f) {
		t.Error("user-excluded failures must not retry")
	}
}

func TestRegistry_Fallback(t *testing.T) {
	reg := NewRegistry()
	c := reg.For(domain.SourceS3)
	if c == nil {
		t.Fatal("registry must always return a classifier")
	}
	if _, ok := c.(*GenericClassifier); !ok {
		t.Errorf("unregistered type should fall back to generic, got %T", c)
	}

	reg.Register(NewS3Classifier())
	if _, ok := reg.For(domain.SourceS3).(*S3Classifier); !ok {
		t.Error("registered classifier not returned")
	}
}

func TestErrorContext_Immutable(t *testing.T) {
	base := NewErrorContext("list_directory", "/a").With("k", "v1")
	derived := base.With("k", "v2").With("extra", "x")

	if base.Additional["k"] != "v1" {
		t.Errorf("base context mutated: k = %s", base.Additional["k"])
	}
	if _, ok := base.Additional["extra"]; ok {
		t.Error("base context gained a key from a derived context")
	}
	if derived.Additional["k"] != "v2" || derived.Additional["extra"] != "x" {
		t.Errorf("derived context wrong: %+v", derived.Additional)
	}
}

func TestBuildUserFriendlyMessage_FromRecordAlone(t *testing.T) {
	c := NewS3Classifier()
	f := &domain.SourceScanFailure{
		ErrorType:    domain.ErrorTypeRateLimited,
		ResourcePath: "s3://docs/inbox",
		ErrorMessage: "SlowDown",
	}
	msg := c.BuildUserFriendlyMessage(f)
	if msg == "" {
		t.Fatal("message must be derivable from the persisted record")
	}
	if want := "s3://docs/inbox"; !strings.Contains(msg, want) {
		t.Errorf("message %q should mention %q", msg, want)
	}
}
