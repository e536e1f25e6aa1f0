package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DirectoriesScanned tracks directories listed per source
	DirectoriesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncguard_directories_scanned_total",
			Help: "Total number of directories scanned",
		},
		[]string{"source"},
	)

	// FilesSeen tracks files discovered per source
	FilesSeen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncguard_files_seen_total",
			Help: "Total number of files discovered during scans",
		},
		[]string{"source"},
	)

	// LoopRejections tracks traversal rejections by the loop detector
	LoopRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncguard_loop_rejections_total",
			Help: "Total number of traversal attempts rejected by the loop detector",
		},
		[]string{"source", "reason"},
	)

	// PatternAlerts tracks advisory cyclic-pattern detections
	PatternAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncguard_pattern_alerts_total",
			Help: "Total number of advisory cyclic access patterns detected",
		},
		[]string{"source"},
	)

	// ScanErrors tracks classified source errors
	ScanErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncguard_scan_errors_total",
			Help: "Total number of classified source scan errors",
		},
		[]string{"source", "error_type", "severity"},
	)

	// FailuresResolved tracks failure records resolved by a successful scan
	FailuresResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncguard_failures_resolved_total",
			Help: "Total number of scan failures resolved",
		},
		[]string{"source"},
	)

	// ActiveAccesses tracks currently open traversal accesses
	ActiveAccesses = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "syncguard_active_accesses",
			Help: "Number of directory accesses currently in flight",
		},
		[]string{"source"},
	)

	// ListDuration tracks directory listing latency
	ListDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "syncguard_list_duration_seconds",
			Help:    "Directory listing latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// RetryCandidates tracks paths currently due for retry
	RetryCandidates = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "syncguard_retry_candidates",
			Help: "Number of failed paths currently eligible for retry",
		},
		[]string{"source"},
	)

	// DBConnectionPoolUsage tracks database pool saturation
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "syncguard_db_pool_usage_percent",
			Help: "Database connection pool usage percentage",
		},
	)
)
