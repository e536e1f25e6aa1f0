// Package control wires storage, sources, detectors, trackers, and engines
// into the running service.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/readur/syncguard/internal/core/config"
	"github.com/readur/syncguard/internal/core/domain"
	redisclient "github.com/readur/syncguard/internal/infra/redis"
	"github.com/readur/syncguard/internal/infra/source"
	"github.com/readur/syncguard/internal/infra/source/local"
	"github.com/readur/syncguard/internal/infra/source/webdav"
	"github.com/readur/syncguard/internal/infra/storage"
	"github.com/readur/syncguard/internal/infra/storage/memory"
	"github.com/readur/syncguard/internal/infra/storage/postgres"
	"github.com/readur/syncguard/internal/sync/classify"
	"github.com/readur/syncguard/internal/sync/engine"
	"github.com/readur/syncguard/internal/sync/failure"
	"github.com/readur/syncguard/internal/sync/health"
	"github.com/readur/syncguard/internal/sync/loopdetect"
)

// sourceRuntime bundles everything running for one configured source.
type sourceRuntime struct {
	cfg      config.SourceConfig
	detector *loopdetect.Detector
	orch     *engine.Orchestrator
	retry    *engine.RetryWorker
}

// Service is the main application struct managing the sync lifecycle.
type Service struct {
	cfg          *config.AppConfig
	runtimes     []*sourceRuntime
	healthServer *health.Server
	repo         storage.ScanFailureRepository
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a Service with all dependencies initialized.
func NewService(cfg *config.AppConfig) (*Service, error) {
	log := slog.Default()

	// 1. Storage: Postgres when configured, in-memory otherwise.
	var repo storage.ScanFailureRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		if _, statErr := os.Stat("migrations"); statErr == nil {
			if err := goose.SetDialect("postgres"); err != nil {
				return nil, err
			}
			if err := goose.Up(db.DB.DB, "migrations"); err != nil {
				return nil, fmt.Errorf("failed to migrate db: %w", err)
			}
		} else {
			// Tests and packaged deployments migrate out of band.
			log.Warn("Migrations directory not found, skipping auto-migration")
		}

		repo = postgres.NewScanFailureRepo(db)
		log.Info("Using PostgreSQL storage")
	} else {
		repo = memory.NewScanFailureRepo()
		log.Info("Using Memory storage")
	}

	// 2. Redis is optional: without it the retry schedule fast path is off.
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, retry schedule mirror disabled", "error", err)
			redisClient = nil
		}
	}

	registry := classify.DefaultRegistry()

	// 3. Per-source runtimes.
	var runtimes []*sourceRuntime
	var targets []health.Target

	for _, sc := range cfg.Sources {
		client, err := newSourceClient(sc)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", sc.ID, err)
		}

		detector := loopdetect.NewDetector(sc.ID, cfg.LoopDetection, log)

		var schedule *redisclient.RetrySchedule
		if redisClient != nil {
			schedule = redisclient.NewRetrySchedule(redisClient, sc.UserID, string(sc.Type))
		}
		tracker := failure.NewTracker(repo, registry, sc.Type, sc.ID, schedule, log)

		orch := engine.NewOrchestrator(client, detector, tracker, engine.Config{
			UserID:          sc.UserID,
			MaxDepth:        sc.MaxDepth,
			MaxConcurrency:  sc.MaxConcurrency,
			MaxScanDuration: cfg.LoopDetection.MaxScanDuration,
		}, log)

		runtimes = append(runtimes, &sourceRuntime{
			cfg:      sc,
			detector: detector,
			orch:     orch,
			retry:    engine.NewRetryWorker(tracker, orch, sc.UserID, sc.RetryInterval, log),
		})
		targets = append(targets, health.Target{
			SourceID:   sc.ID,
			SourceType: sc.Type,
			UserID:     sc.UserID,
			Detector:   detector,
		})
	}

	monitor := health.NewMonitor(targets, repo)
	healthServer := health.NewServer(fmt.Sprintf(":%d", cfg.Server.Port), monitor, log)

	return &Service{
		cfg:          cfg,
		runtimes:     runtimes,
		healthServer: healthServer,
		repo:         repo,
		db:           db,
		redisClient:  redisClient,
		log:          log,
	}, nil
}

// newSourceClient builds the adapter for one source config.
func newSourceClient(sc config.SourceConfig) (source.Client, error) {
	switch sc.Type {
	case domain.SourceLocalFolder:
		return local.NewClient(sc.RootPath), nil
	case domain.SourceWebDAV:
		return webdav.NewClient(webdav.Config{
			URL:      sc.URL,
			Username: sc.Username,
			Password: sc.Password,
		})
	default:
		return nil, fmt.Errorf("no client implemented for source type %q", sc.Type)
	}
}

// Start launches the health server, scan loops, and retry workers.
func (s *Service) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		if err := s.healthServer.Start(); err != nil {
			s.log.Error("Health server failed", "error", err)
		}
	}()

	if s.db != nil {
		s.db.StartMetricsCollector(ctx)
	}

	for _, rt := range s.runtimes {
		s.log.Info("Starting source",
			"source", rt.cfg.ID,
			"type", string(rt.cfg.Type),
			"interval", rt.cfg.ScanInterval)

		s.wg.Add(2)
		go func(rt *sourceRuntime) {
			defer s.wg.Done()
			s.runScanLoop(ctx, rt)
		}(rt)
		go func(rt *sourceRuntime) {
			defer s.wg.Done()
			rt.retry.Run(ctx)
		}(rt)
	}

	return nil
}

// runScanLoop scans the source root immediately, then on every interval.
func (s *Service) runScanLoop(ctx context.Context, rt *sourceRuntime) {
	// The local client is already rooted at RootPath, so its traversal
	// starts at "/". Remote sources start at the configured subpath.
	root := rt.cfg.RootPath
	if rt.cfg.Type == domain.SourceLocalFolder || root == "" {
		root = "/"
	}

	scan := func() {
		if _, err := rt.orch.Scan(ctx, root); err != nil && ctx.Err() == nil {
			s.log.Error("Scan failed", "source", rt.cfg.ID, "error", err)
		}
	}

	scan()
	ticker := time.NewTicker(rt.cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scan()
		}
	}
}

// Stop shuts everything down and waits for in-flight scans to drain.
func (s *Service) Stop(ctx context.Context) error {
	s.log.Info("Stopping service...")
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("Failed to close database", "error", err)
		}
	}

	return s.healthServer.Stop(ctx)
}
