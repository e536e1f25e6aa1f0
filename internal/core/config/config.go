package config

import (
	"time"

	"github.com/readur/syncguard/internal/core/domain"
	redisclient "github.com/readur/syncguard/internal/infra/redis"
	"github.com/readur/syncguard/internal/infra/storage/postgres"
	"github.com/readur/syncguard/internal/sync/loopdetect"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server        ServerConfig       `yaml:"server"`
	Sources       []SourceConfig     `yaml:"sources"`
	Redis         redisclient.Config `yaml:"redis"`
	Logging       LoggingConfig      `yaml:"logging"`
	Database      postgres.Config    `yaml:"database"`
	LoopDetection loopdetect.Config  `yaml:"loop_detection"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SourceConfig holds settings for one scannable source.
type SourceConfig struct {
	ID             string            `yaml:"id"`
	Type           domain.SourceType `yaml:"type"` // e.g. "webdav", "local_folder"
	UserID         string            `yaml:"user_id"`
	RootPath       string            `yaml:"root_path"`
	URL            string            `yaml:"url"`
	Username       string            `yaml:"username"`
	Password       string            `yaml:"password"`
	ScanInterval   time.Duration     `yaml:"scan_interval"`
	RetryInterval  time.Duration     `yaml:"retry_interval"`
	MaxDepth       int               `yaml:"max_depth"`
	MaxConcurrency int               `yaml:"max_concurrency"`
}
