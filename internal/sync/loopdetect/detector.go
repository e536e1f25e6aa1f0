// Package loopdetect tracks per-directory access history during recursive
// source traversal and rejects access patterns that indicate an infinite
// loop: concurrent re-entry, immediate re-scans, excessive frequency, and
// cyclic visit sequences.
package loopdetect

import (
	"log/slog"
	"sync"
	"time"

	"github.com/readur/syncguard/internal/sync/metrics"
)

// Detector is the stateful loop tracker shared by all traversal workers of
// one sync engine. All methods are safe for concurrent use; the
// check-and-insert in StartAccess is atomic so two racing workers can never
// both open the same path.
type Detector struct {
	source string
	log    *slog.Logger

	mu  sync.Mutex
	cfg Config
	now func() time.Time

	nextHandle   uint64
	open         map[uint64]*AccessRecord
	activeByPath map[string]uint64
	startTimes   map[string][]time.Time
	lastComplete map[string]time.Time
	history      []*AccessRecord
	historyRefs  map[string]int
	sequences    map[string][]string

	totalAccesses      uint64
	totalLoopsDetected uint64
	patternAlerts      uint64
}

// NewDetector creates a detector for one source. The source name is only
// used as a metrics/log label.
func NewDetector(source string, cfg Config, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	d := &Detector{
		source: source,
		log:    log.With("component", "loopdetect", "source", source),
		cfg:    cfg.normalized(),
		now:    time.Now,
	}
	d.reset()
	return d
}

func (d *Detector) reset() {
	d.open = make(map[uint64]*AccessRecord)
	d.activeByPath = make(map[string]uint64)
	d.startTimes = make(map[string][]time.Time)
	d.lastComplete = make(map[string]time.Time)
	d.history = nil
	d.historyRefs = make(map[string]int)
	d.sequences = make(map[string][]string)
	d.totalAccesses = 0
	d.totalLoopsDetected = 0
	d.patternAlerts = 0
}

// StartAccess registers the beginning of a traversal of path by the scan
// identified by scanID. It returns a LoopError without registering anything
// when the access would re-enter an open traversal, re-scan too soon, exceed
// the frequency window, or (if RejectOnPattern is set) close a cyclic
// pattern. The returned handle must always be completed, including on
// cancellation paths.
func (d *Detector) StartAccess(path, scanID string) (*AccessHandle, error) {
	d.mu.Lock()
	loopErr, patternAlert := d.check(path, scanID)
	if loopErr != nil {
		d.totalLoopsDetected++
		level := d.cfg.LogLevel
		d.mu.Unlock()
		metrics.LoopRejections.WithLabelValues(d.source, string(loopErr.Reason)).Inc()
		d.logRejection(loopErr, level)
		return nil, loopErr
	}

	now := d.now()
	d.nextHandle++
	h := &AccessHandle{id: d.nextHandle, Path: path}
	rec := &AccessRecord{Path: path, ScanID: scanID, StartTime: now}
	d.open[h.id] = rec
	d.activeByPath[path] = h.id
	d.startTimes[path] = append(d.pruneWindow(path, now), now)
	d.totalAccesses++
	active := len(d.open)
	d.mu.Unlock()

	metrics.ActiveAccesses.WithLabelValues(d.source).Set(float64(active))
	if patternAlert {
		metrics.PatternAlerts.WithLabelValues(d.source).Inc()
		d.log.Warn("Cyclic access pattern detected", "path", path, "scan_id", scanID)
	}
	return h, nil
}

// check evaluates rejection rules in order. Caller holds the lock.
func (d *Detector) check(path, scanID string) (*LoopError, bool) {
	if !d.cfg.Enabled {
		return nil, false
	}

	if _, inFlight := d.activeByPath[path]; inFlight {
		return &LoopError{Reason: ReasonConcurrentAccess, Path: path}, false
	}

	now := d.now()
	if last, ok := d.lastComplete[path]; ok && d.cfg.MinScanInterval > 0 {
		if elapsed := now.Sub(last); elapsed < d.cfg.MinScanInterval {
			return &LoopError{Reason: ReasonTooSoon, Path: path, Elapsed: elapsed}, false
		}
	}

	recent := d.pruneWindow(path, now)
	d.startTimes[path] = recent
	if len(recent) >= d.cfg.MaxAccessCount {
		return &LoopError{Reason: ReasonTooFrequent, Path: path, Count: len(recent)}, false
	}

	if d.cfg.EnablePatternAnalysis && d.isCyclic(path, scanID) {
		d.patternAlerts++
		if d.cfg.RejectOnPattern {
			return &LoopError{Reason: ReasonPatternCycle, Path: path}, false
		}
		return nil, true
	}
	return nil, false
}

// pruneWindow drops start times for path that fell out of the trailing
// frequency window. Caller holds the lock.
func (d *Detector) pruneWindow(path string, now time.Time) []time.Time {
	times := d.startTimes[path]
	cutoff := now.Add(-d.cfg.TimeWindow)
	i := 0
	for ; i < len(times); i++ {
		if times[i].After(cutoff) {
			break
		}
	}
	return times[i:]
}

// isCyclic reports whether visiting path next would repeat a cycle within
// the recent completed-visit sequence of this scan. Best-effort: this is an
// advisory signal, not a correctness guarantee. Caller holds the lock.
func (d *Detector) isCyclic(path, scanID string) bool {
	seq := d.sequences[scanID]
	if len(seq) == 0 {
		return false
	}
	tail := seq
	if max := d.cfg.MaxPatternDepth * 2; len(tail) > max {
		tail = tail[len(tail)-max:]
	}
	s := make([]string, 0, len(tail)+1)
	s = append(s, tail...)
	s = append(s, path)

	// A repeated trailing block of length >= 2 means the walk is cycling.
	// Length-1 repeats are immediate re-visits already covered by the
	// min-interval rule.
	n := len(s)
	for l := 2; l <= d.cfg.MaxPatternDepth && 2*l <= n; l++ {
		match := true
		for i := 0; i < l; i++ {
			if s[n-1-i] != s[n-1-l-i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// CompleteAccess closes the record opened by StartAccess, stamping the end
// time and outcome. Completing an unknown or already-completed handle
// returns ErrUnknownHandle.
func (d *Detector) CompleteAccess(h *AccessHandle, filesFound, dirsFound int, errMsg string) error {
	if h == nil {
		return ErrUnknownHandle
	}
	d.mu.Lock()
	rec, ok := d.open[h.id]
	if !ok {
		d.mu.Unlock()
		return ErrUnknownHandle
	}
	end := d.now()
	rec.EndTime = &end
	rec.FilesFound = filesFound
	rec.DirsFound = dirsFound
	rec.Error = errMsg

	delete(d.open, h.id)
	if d.activeByPath[rec.Path] == h.id {
		delete(d.activeByPath, rec.Path)
	}
	d.lastComplete[rec.Path] = end
	d.appendHistory(rec)
	d.appendSequence(rec.ScanID, rec.Path)
	active := len(d.open)
	d.mu.Unlock()

	metrics.ActiveAccesses.WithLabelValues(d.source).Set(float64(active))
	return nil
}

// appendHistory records a completed access, evicting oldest-first beyond
// MaxTrackedDirectories. History order is completion order: under
// concurrency that is the actual traversal sequence. Caller holds the lock.
func (d *Detector) appendHistory(rec *AccessRecord) {
	d.history = append(d.history, rec)
	d.historyRefs[rec.Path]++
	if over := len(d.history) - d.cfg.MaxTrackedDirectories; over > 0 {
		evicted := d.history[:over]
		d.history = d.history[over:]
		for _, old := range evicted {
			// Drop per-path bookkeeping only if no newer record kept it alive.
			d.historyRefs[old.Path]--
			if d.historyRefs[old.Path] <= 0 {
				delete(d.historyRefs, old.Path)
				delete(d.startTimes, old.Path)
				delete(d.lastComplete, old.Path)
			}
		}
	}
}

// appendSequence extends the per-scan visit sequence used by pattern
// analysis, collapsing consecutive duplicates. Caller holds the lock.
func (d *Detector) appendSequence(scanID, path string) {
	seq := d.sequences[scanID]
	if len(seq) > 0 && seq[len(seq)-1] == path {
		return
	}
	seq = append(seq, path)
	if max := d.cfg.MaxPatternDepth * 4; len(seq) > max {
		seq = seq[len(seq)-max:]
	}
	d.sequences[scanID] = seq
}

// Metrics returns a snapshot of detector state.
func (d *Detector) Metrics() Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Metrics{
		Enabled:            d.cfg.Enabled,
		TotalAccesses:      d.totalAccesses,
		TotalLoopsDetected: d.totalLoopsDetected,
		PatternAlerts:      d.patternAlerts,
		ActiveAccesses:     len(d.open),
		HistorySize:        len(d.history),
		Config:             d.cfg,
	}
}

// UpdateConfig hot-swaps thresholds. It takes effect on the next
// StartAccess call and never re-evaluates accesses already in flight.
func (d *Detector) UpdateConfig(cfg Config) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg.normalized()
}

// ClearState drops all history, open-access bookkeeping, and counters.
// Used between independent crawl runs.
func (d *Detector) ClearState() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

func (d *Detector) logRejection(e *LoopError, level string) {
	attrs := []any{"path", e.Path, "reason", string(e.Reason)}
	switch level {
	case "debug":
		d.log.Debug("Traversal rejected", attrs...)
	case "info":
		d.log.Info("Traversal rejected", attrs...)
	default:
		d.log.Warn("Traversal rejected", attrs...)
	}
}
