package health

import (
	"context"
	"sync"
	"time"

	"github.com/readur/syncguard/internal/core/domain"
	"github.com/readur/syncguard/internal/infra/storage"
	"github.com/readur/syncguard/internal/sync/loopdetect"
)

// Target is one source the monitor watches.
type Target struct {
	SourceID   string
	SourceType domain.SourceType
	UserID     string
	Detector   *loopdetect.Detector
}

// Monitor aggregates health status across all configured sources.
type Monitor struct {
	targets    []Target
	repo       storage.ScanFailureRepository
	lastCheck  time.Time
	lastReport map[string]SourceHealth
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor.
func NewMonitor(targets []Target, repo storage.ScanFailureRepository) *Monitor {
	return &Monitor{
		targets:    targets,
		repo:       repo,
		lastReport: make(map[string]SourceHealth),
	}
}

// CheckHealth performs a health check for all sources.
func (m *Monitor) CheckHealth(ctx context.Context) map[string]SourceHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks (max once per 10s) to avoid hammering the store
	if time.Since(m.lastCheck) < 10*time.Second && len(m.lastReport) > 0 {
		return m.lastReport
	}

	report := make(map[string]SourceHealth)

	for _, t := range m.targets {
		h := SourceHealth{
			SourceID:   t.SourceID,
			SourceType: t.SourceType,
			Status:     StatusHealthy,
		}

		count, err := m.repo.CountUnresolved(ctx, t.UserID, t.SourceType)
		if err != nil {
			// A store we cannot read is a degradation in itself.
			h.Status = StatusDegraded
		} else {
			h.UnresolvedFailures = count
		}

		if t.Detector != nil {
			dm := t.Detector.Metrics()
			h.LoopsDetected = dm.TotalLoopsDetected
			h.PatternAlerts = dm.PatternAlerts
			h.ActiveAccesses = dm.ActiveAccesses
		}

		if h.UnresolvedFailures > 50 || h.LoopsDetected > 100 {
			h.Status = StatusCritical
		} else if h.UnresolvedFailures > 0 || h.LoopsDetected > 0 || h.Status == StatusDegraded {
			h.Status = StatusDegraded
		}

		report[t.SourceID] = h
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}

// Overall folds a per-source report into one system status.
func Overall(report map[string]SourceHealth) SystemStatus {
	status := StatusHealthy
	for _, h := range report {
		status = worst(status, h.Status)
	}
	return status
}
