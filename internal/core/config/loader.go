package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/readur/syncguard/internal/sync/loopdetect"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	cfg.LoopDetection = loopdetect.DefaultConfig()

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	for i := range cfg.Sources {
		s := &cfg.Sources[i]
		if s.ID == "" {
			return nil, fmt.Errorf("source %d: id is required", i)
		}
		if !s.Type.Valid() {
			return nil, fmt.Errorf("source %s: unknown type %q", s.ID, s.Type)
		}
		if s.RootPath == "" {
			s.RootPath = "/"
		}
		// Non-positive intervals would panic time.NewTicker downstream.
		if s.ScanInterval <= 0 {
			s.ScanInterval = 5 * time.Minute
		}
		if s.RetryInterval <= 0 {
			s.RetryInterval = time.Minute
		}
		if s.MaxConcurrency <= 0 {
			s.MaxConcurrency = 4
		}
	}

	return &cfg, nil
}
