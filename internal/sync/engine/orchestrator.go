// Package engine drives the recursive traversal of one source, weaving the
// loop detector and failure tracker around every directory listing.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/readur/syncguard/internal/infra/source"
	"github.com/readur/syncguard/internal/sync/classify"
	"github.com/readur/syncguard/internal/sync/failure"
	"github.com/readur/syncguard/internal/sync/loopdetect"
	"github.com/readur/syncguard/internal/sync/metrics"
)

// Config tunes one orchestrator.
type Config struct {
	UserID string

	// MaxDepth bounds recursion below the scan root. Zero means unlimited.
	MaxDepth int `yaml:"max_depth"`

	// MaxConcurrency bounds the number of directories listed at once.
	MaxConcurrency int `yaml:"max_concurrency"`

	// MaxScanDuration is the per-listing timeout. Zero disables it.
	MaxScanDuration time.Duration `yaml:"max_scan_duration"`
}

// Stats summarizes one scan run.
type Stats struct {
	DirectoriesScanned int64
	FilesSeen          int64
	LoopsSkipped       int64
	FailuresSkipped    int64
	Errors             int64
}

// Orchestrator runs guarded scans over one source. Each directory listing is
// bracketed by a skip check, a loop-detector access, and failure tracking;
// the detector access is always completed, including on cancellation.
type Orchestrator struct {
	client   source.Client
	detector *loopdetect.Detector
	tracker  *failure.Tracker
	cfg      Config
	log      *slog.Logger

	dirs      atomic.Int64
	files     atomic.Int64
	loops     atomic.Int64
	skips     atomic.Int64
	errsCount atomic.Int64
}

// NewOrchestrator wires a client, detector, and tracker into a scan engine.
func NewOrchestrator(
	client source.Client,
	detector *loopdetect.Detector,
	tracker *failure.Tracker,
	cfg Config,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 4
	}
	return &Orchestrator{
		client:   client,
		detector: detector,
		tracker:  tracker,
		cfg:      cfg,
		log:      log.With("component", "sync_engine", "source_type", string(client.SourceType())),
	}
}

// Scan traverses the subtree rooted at rootPath. Per-directory errors are
// tracked, not propagated, so one bad share never aborts the crawl; the only
// returned error is context cancellation. The returned stats are cumulative
// over the orchestrator's lifetime.
func (o *Orchestrator) Scan(ctx context.Context, rootPath string) (Stats, error) {
	scanID := uuid.NewString()
	o.log.Info("Scan started", "root", rootPath, "scan_id", scanID)

	sem := make(chan struct{}, o.cfg.MaxConcurrency)
	var wg sync.WaitGroup

	var walk func(path string, depth int)
	walk = func(path string, depth int) {
		defer wg.Done()
		if ctx.Err() != nil {
			return
		}
		sem <- struct{}{}
		listing := o.scanDirectory(ctx, scanID, path)
		<-sem
		if listing == nil {
			return
		}
		for _, e := range listing.Entries {
			if !e.IsDir {
				continue
			}
			if o.cfg.MaxDepth > 0 && depth+1 > o.cfg.MaxDepth {
				continue
			}
			wg.Add(1)
			go walk(e.Path, depth+1)
		}
	}

	wg.Add(1)
	go walk(rootPath, 0)
	wg.Wait()

	stats := o.stats()
	o.log.Info("Scan finished",
		"root", rootPath,
		"scan_id", scanID,
		"directories", stats.DirectoriesScanned,
		"files", stats.FilesSeen,
		"loops_skipped", stats.LoopsSkipped,
		"failures_skipped", stats.FailuresSkipped,
		"errors", stats.Errors)
	return stats, ctx.Err()
}

// ScanPath re-scans a single subtree, used by the retry worker.
func (o *Orchestrator) ScanPath(ctx context.Context, path string) (Stats, error) {
	return o.Scan(ctx, path)
}

// scanDirectory performs the guarded listing of one directory. A nil return
// means the subtree below path must not be descended into this round.
func (o *Orchestrator) scanDirectory(ctx context.Context, scanID, path string) *source.Listing {
	if o.tracker.ShouldSkipDirectory(ctx, o.cfg.UserID, path) {
		o.skips.Add(1)
		o.log.Debug("Skipping directory with pending failure", "path", path)
		return nil
	}

	handle, err := o.detector.StartAccess(path, scanID)
	if err != nil {
		var loopErr *loopdetect.LoopError
		if errors.As(err, &loopErr) {
			o.loops.Add(1)
			return nil
		}
		o.errsCount.Add(1)
		o.log.Error("Failed to open traversal access", "path", path, "error", err)
		return nil
	}

	listCtx := ctx
	if o.cfg.MaxScanDuration > 0 {
		var cancel context.CancelFunc
		listCtx, cancel = context.WithTimeout(ctx, o.cfg.MaxScanDuration)
		defer cancel()
	}

	start := time.Now()
	listing, listErr := o.client.ListDirectory(listCtx, path)
	elapsed := time.Since(start)

	// The access is completed on every path out of here, cancellation
	// included, or the detector would flag the next visit as concurrent.
	files, dirs := 0, 0
	errMsg := ""
	if listErr != nil {
		errMsg = listErr.Error()
	} else {
		for _, e := range listing.Entries {
			if e.IsDir {
				dirs++
			} else {
				files++
			}
		}
	}
	if err := o.detector.CompleteAccess(handle, files, dirs, errMsg); err != nil {
		o.log.Error("Failed to complete traversal access", "path", path, "error", err)
	}

	srcLabel := string(o.client.SourceType())
	if listErr != nil {
		// Shutdown is not a source fault; the access was completed above
		// and nothing is persisted.
		if ctx.Err() != nil {
			return nil
		}
		o.errsCount.Add(1)
		ectx := classify.NewErrorContext("list_directory", path).
			WithResponseTime(elapsed)
		if listing != nil {
			ectx = ectx.WithResponseSize(listing.ResponseSize).
				WithServer(listing.ServerType, "")
		}
		o.tracker.TrackScanError(ctx, o.cfg.UserID, path, listErr, ectx)
		return nil
	}

	o.dirs.Add(1)
	o.files.Add(int64(files))
	metrics.DirectoriesScanned.WithLabelValues(srcLabel).Inc()
	metrics.FilesSeen.WithLabelValues(srcLabel).Add(float64(files))
	metrics.ListDuration.WithLabelValues(srcLabel).Observe(elapsed.Seconds())
	o.tracker.MarkScanSuccessful(ctx, o.cfg.UserID, path)
	return listing
}

func (o *Orchestrator) stats() Stats {
	return Stats{
		DirectoriesScanned: o.dirs.Load(),
		FilesSeen:          o.files.Load(),
		LoopsSkipped:       o.loops.Load(),
		FailuresSkipped:    o.skips.Load(),
		Errors:             o.errsCount.Load(),
	}
}

// Stats returns cumulative counters across all runs of this orchestrator.
func (o *Orchestrator) Stats() Stats { return o.stats() }
