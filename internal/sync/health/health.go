// Package health provides system health monitoring and status reporting.
package health

import "github.com/readur/syncguard/internal/core/domain"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// SourceHealth contains health metrics for a single configured source.
type SourceHealth struct {
	SourceID           string            `json:"source_id"`
	SourceType         domain.SourceType `json:"source_type"`
	Status             SystemStatus      `json:"status"`
	UnresolvedFailures int               `json:"unresolved_failures"`
	LoopsDetected      uint64            `json:"loops_detected"`
	PatternAlerts      uint64            `json:"pattern_alerts"`
	ActiveAccesses     int               `json:"active_accesses"`
}

// Report contains the full system health report.
type Report struct {
	SystemStatus SystemStatus            `json:"system_status"`
	Sources      map[string]SourceHealth `json:"sources"`
}

// worst returns the more severe of two statuses.
func worst(a, b SystemStatus) SystemStatus {
	rank := map[SystemStatus]int{StatusHealthy: 0, StatusDegraded: 1, StatusCritical: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}
