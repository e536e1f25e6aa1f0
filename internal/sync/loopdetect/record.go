package loopdetect

import "time"

// AccessRecord tracks one traversal of a path, from StartAccess until
// CompleteAccess stamps the outcome.
type AccessRecord struct {
	Path       string     `json:"path"`
	ScanID     string     `json:"scan_id"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time"`
	FilesFound int        `json:"files_found"`
	DirsFound  int        `json:"dirs_found"`
	Error      string     `json:"error,omitempty"`
}

// AccessHandle is the token returned by StartAccess and required by
// CompleteAccess. Handles are single-use.
type AccessHandle struct {
	id   uint64
	Path string
}

// Metrics is a point-in-time snapshot of detector state.
type Metrics struct {
	Enabled            bool   `json:"enabled"`
	TotalAccesses      uint64 `json:"total_accesses"`
	TotalLoopsDetected uint64 `json:"total_loops_detected"`
	PatternAlerts      uint64 `json:"pattern_alerts"`
	ActiveAccesses     int    `json:"active_accesses"`
	HistorySize        int    `json:"history_size"`
	Config             Config `json:"config"`
}
