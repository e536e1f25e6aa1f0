package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/readur/syncguard/internal/control"
	"github.com/readur/syncguard/internal/core/config"
	"github.com/readur/syncguard/internal/core/domain"
	"github.com/readur/syncguard/internal/sync/loopdetect"
)

func TestGracefulShutdown(t *testing.T) {
	// Memory storage and a local source: enough to start every component
	// without external services.
	cfg := &config.AppConfig{
		Server: config.ServerConfig{Port: 0},
		Sources: []config.SourceConfig{{
			ID:             "files",
			Type:           domain.SourceLocalFolder,
			UserID:         "user-1",
			RootPath:       t.TempDir(),
			ScanInterval:   time.Second,
			RetryInterval:  time.Second,
			MaxConcurrency: 2,
		}},
		LoopDetection: loopdetect.DefaultConfig(),
	}

	svc, err := control.NewService(cfg)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Let it run for a bit
	time.Sleep(2 * time.Second)

	// Trigger shutdown
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	done := make(chan error, 1)
	go func() {
		done <- svc.Stop(stopCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Error("Stop did not return within 10s")
	}
}
