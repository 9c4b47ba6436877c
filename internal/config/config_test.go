package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("missing file reported as existing")
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if cfg.Workflow.MaxConcurrency != 3 {
		t.Errorf("MaxConcurrency = %d, want default 3", cfg.Workflow.MaxConcurrency)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Errorf("logging defaults = %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[pipeline]
base_url = "https://claims.example.com/api/"
auth_token = " token "

[workflow]
max_concurrency = 5

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("file not detected")
	}
	if cfg.Pipeline.BaseURL != "https://claims.example.com/api" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.Pipeline.BaseURL)
	}
	if cfg.Pipeline.AuthToken != "token" {
		t.Errorf("AuthToken = %q, want trimmed", cfg.Pipeline.AuthToken)
	}
	if cfg.Workflow.MaxConcurrency != 5 {
		t.Errorf("MaxConcurrency = %d, want 5", cfg.Workflow.MaxConcurrency)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want lowercased", cfg.Logging.Level)
	}
	// Untouched sections keep defaults.
	if cfg.Workflow.QueuePollInterval != 2 {
		t.Errorf("QueuePollInterval = %d, want default 2", cfg.Workflow.QueuePollInterval)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		problem string
	}{
		{"bad url", "[pipeline]\nbase_url = \"not a url\"\n", "pipeline.base_url"},
		{"zero concurrency", "[workflow]\nmax_concurrency = 0\n", "max_concurrency"},
		{"bad format", "[logging]\nformat = \"xml\"\n", "logging.format"},
		{"bad level", "[logging]\nlevel = \"verbose\"\n", "logging.level"},
		{"negative retention", "[history]\nretention_days = -1\n", "retention_days"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.problem) {
				t.Fatalf("err = %v, want mention of %s", err, tc.problem)
			}
		})
	}
}

func TestExpandPathTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	got, err := expandPath("~/intake/logs")
	if err != nil {
		t.Fatalf("expandPath: %v", err)
	}
	if got != filepath.Join(home, "intake", "logs") {
		t.Errorf("expandPath = %q", got)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteSample(path); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(content), "[pipeline]") {
		t.Error("sample config missing pipeline section")
	}
	if err := WriteSample(path); err == nil {
		t.Fatal("second WriteSample should refuse to overwrite")
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.LogDir = "/var/lib/intake/logs"
	if got := cfg.SocketPath(); got != "/var/lib/intake/logs/intaked.sock" {
		t.Errorf("SocketPath = %q", got)
	}
	if got := cfg.HistoryPath(); got != "/var/lib/intake/logs/history.db" {
		t.Errorf("HistoryPath = %q", got)
	}
	if got := cfg.LogPath(); got != "/var/lib/intake/logs/intake.log" {
		t.Errorf("LogPath = %q", got)
	}
}
