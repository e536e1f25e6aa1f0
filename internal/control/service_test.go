package control

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/readur/syncguard/internal/core/config"
	"github.com/readur/syncguard/internal/core/domain"
	"github.com/readur/syncguard/internal/sync/loopdetect"
)

func testAppConfig(root string) *config.AppConfig {
	return &config.AppConfig{
		Server: config.ServerConfig{Port: 0},
		Sources: []config.SourceConfig{{
			ID:             "files",
			Type:           domain.SourceLocalFolder,
			UserID:         "user-1",
			RootPath:       root,
			ScanInterval:   time.Hour,
			RetryInterval:  time.Hour,
			MaxConcurrency: 2,
		}},
		LoopDetection: loopdetect.DefaultConfig(),
	}
}

func TestNewService_MemoryStorage(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "b"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "doc.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc, err := NewService(testAppConfig(root))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if len(svc.runtimes) != 1 {
		t.Fatalf("runtimes = %d, want 1", len(svc.runtimes))
	}

	stats, err := svc.runtimes[0].orch.Scan(context.Background(), "/")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if stats.DirectoriesScanned != 3 {
		t.Errorf("directories = %d, want 3 (root, a, a/b)", stats.DirectoriesScanned)
	}
	if stats.FilesSeen != 1 {
		t.Errorf("files = %d, want 1", stats.FilesSeen)
	}
}

func TestNewService_UnsupportedSourceType(t *testing.T) {
	cfg := testAppConfig(t.TempDir())
	cfg.Sources[0].Type = domain.SourceDropbox

	if _, err := NewService(cfg); err == nil {
		t.Error("source types without a client must be rejected at wiring time")
	}
}
