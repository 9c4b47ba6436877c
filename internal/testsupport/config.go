package testsupport

import (
	"path/filepath"
	"testing"

	"intake/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Pipeline.BaseURL = "http://127.0.0.1:0"
	cfg.Pipeline.AuthToken = "test"
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.StatusPollInterval = 1
	cfg.History.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithWatchDir points the config at a watch directory under the test's temp
// space.
func WithWatchDir(dir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.WatchDir = dir
	}
}

// WithHistory enables the history journal on the test config.
func WithHistory() ConfigOption {
	return func(cfg *config.Config) {
		cfg.History.Enabled = true
	}
}
