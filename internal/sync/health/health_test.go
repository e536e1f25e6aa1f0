package health

import (
	"context"
	"fmt"
	"testing"

	"github.com/readur/syncguard/internal/core/domain"
	"github.com/readur/syncguard/internal/infra/storage/memory"
	"github.com/readur/syncguard/internal/sync/loopdetect"
)

func seedFailures(t *testing.T, repo *memory.ScanFailureRepo, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := repo.Upsert(ctx, &domain.CreateScanFailure{
			UserID:        "user-1",
			SourceType:    domain.SourceWebDAV,
			ResourcePath:  fmt.Sprintf("/broken/%d", i),
			ErrorType:     domain.ErrorTypeTimeout,
			ErrorSeverity: domain.SeverityMedium,
			RetryStrategy: domain.RetryExponential,
			MaxRetries:    3,
		})
		if err != nil {
			t.Fatalf("seed failure %d: %v", i, err)
		}
	}
}

func testTargets() []Target {
	return []Target{{
		SourceID:   "src-1",
		SourceType: domain.SourceWebDAV,
		UserID:     "user-1",
		Detector:   loopdetect.NewDetector("webdav", loopdetect.DefaultConfig(), nil),
	}}
}

func TestMonitor_Healthy(t *testing.T) {
	monitor := NewMonitor(testTargets(), memory.NewScanFailureRepo())

	report := monitor.CheckHealth(context.Background())
	h := report["src-1"]

	if h.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}
}

func TestMonitor_Degraded(t *testing.T) {
	repo := memory.NewScanFailureRepo()
	seedFailures(t, repo, 3)
	monitor := NewMonitor(testTargets(), repo)

	report := monitor.CheckHealth(context.Background())
	h := report["src-1"]

	if h.Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", h.Status)
	}
	if h.UnresolvedFailures != 3 {
		t.Errorf("unresolved = %d, want 3", h.UnresolvedFailures)
	}
}

func TestMonitor_Critical(t *testing.T) {
	repo := memory.NewScanFailureRepo()
	seedFailures(t, repo, 51)
	monitor := NewMonitor(testTargets(), repo)

	report := monitor.CheckHealth(context.Background())
	h := report["src-1"]

	if h.Status != StatusCritical {
		t.Errorf("expected critical, got %s", h.Status)
	}
}

func TestMonitor_CachesReports(t *testing.T) {
	repo := memory.NewScanFailureRepo()
	monitor := NewMonitor(testTargets(), repo)
	ctx := context.Background()

	first := monitor.CheckHealth(ctx)
	seedFailures(t, repo, 1)
	second := monitor.CheckHealth(ctx)

	if first["src-1"].Status != second["src-1"].Status {
		t.Error("back-to-back checks must be served from the cached report")
	}
}

func TestOverall(t *testing.T) {
	report := map[string]SourceHealth{
		"a": {Status: StatusHealthy},
		"b": {Status: StatusCritical},
		"c": {Status: StatusDegraded},
	}
	if got := Overall(report); got != StatusCritical {
		t.Errorf("overall = %s, want critical", got)
	}
	if got := Overall(nil); got != StatusHealthy {
		t.Errorf("empty report = %s, want healthy", got)
	}
}
