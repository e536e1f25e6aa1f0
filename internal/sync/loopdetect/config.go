package loopdetect

import "time"

// Config tunes the loop detector for one sync session. Values are
// normalized at construction; updates take effect on the next StartAccess.
type Config struct {
	Enabled bool `yaml:"enabled"`

	// MaxAccessCount is the number of accesses allowed for a single path
	// within TimeWindow before further attempts are rejected.
	MaxAccessCount int           `yaml:"max_access_count"`
	TimeWindow     time.Duration `yaml:"time_window"`

	// MaxScanDuration is advisory: the engine applies it as the listing
	// timeout. The detector never cancels a slow operation itself.
	MaxScanDuration time.Duration `yaml:"max_scan_duration"`

	// MinScanInterval is the minimum gap between successive completed
	// visits to the same path.
	MinScanInterval time.Duration `yaml:"min_scan_interval"`

	// MaxPatternDepth is the longest cycle considered by pattern analysis.
	MaxPatternDepth int `yaml:"max_pattern_depth"`

	// MaxTrackedDirectories bounds the completed-access history.
	MaxTrackedDirectories int `yaml:"max_tracked_directories"`

	EnablePatternAnalysis bool `yaml:"enable_pattern_analysis"`

	// RejectOnPattern turns the advisory pattern signal into a hard
	// rejection. Off by default: cycle analysis is best-effort.
	RejectOnPattern bool `yaml:"reject_on_pattern"`

	// LogLevel controls how loudly rejections are logged (debug, info, warn).
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the detector defaults used when a source does not
// configure its own thresholds.
func DefaultConfig() Config {
	return Config{
		Enabled:               true,
		MaxAccessCount:        10,
		TimeWindow:            5 * time.Minute,
		MaxScanDuration:       2 * time.Minute,
		MinScanInterval:       30 * time.Second,
		MaxPatternDepth:       5,
		MaxTrackedDirectories: 1000,
		EnablePatternAnalysis: true,
		LogLevel:              "warn",
	}
}

// normalized enforces config invariants (MaxAccessCount >= 1, TimeWindow > 0).
func (c Config) normalized() Config {
	if c.MaxAccessCount < 1 {
		c.MaxAccessCount = 1
	}
	if c.TimeWindow <= 0 {
		c.TimeWindow = DefaultConfig().TimeWindow
	}
	if c.MaxPatternDepth < 2 {
		c.MaxPatternDepth = 2
	}
	if c.MaxTrackedDirectories < 1 {
		c.MaxTrackedDirectories = DefaultConfig().MaxTrackedDirectories
	}
	return c
}
