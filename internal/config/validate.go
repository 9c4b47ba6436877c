package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks semantic correctness of the configuration. It assumes
// normalize has already run.
func (c *Config) Validate() error {
	var problems []string

	problems = append(problems, c.validatePaths()...)
	problems = append(problems, c.validatePipeline()...)
	problems = append(problems, c.validateWorkflow()...)
	problems = append(problems, c.validateHistory()...)
	problems = append(problems, c.validateLogging()...)

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func (c *Config) validatePaths() []string {
	var problems []string
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}
	return problems
}

func (c *Config) validatePipeline() []string {
	var problems []string
	if c.Pipeline.BaseURL != "" {
		parsed, err := url.Parse(c.Pipeline.BaseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			problems = append(problems, fmt.Sprintf("pipeline.base_url %q is not a valid URL", c.Pipeline.BaseURL))
		}
	}
	if c.Pipeline.RequestTimeout <= 0 {
		problems = append(problems, "pipeline.request_timeout must be positive")
	}
	if c.Pipeline.UploadTimeout <= 0 {
		problems = append(problems, "pipeline.upload_timeout must be positive")
	}
	return problems
}

func (c *Config) validateWorkflow() []string {
	var problems []string
	if c.Workflow.MaxConcurrency < 1 {
		problems = append(problems, "workflow.max_concurrency must be at least 1")
	}
	if c.Workflow.QueuePollInterval <= 0 {
		problems = append(problems, "workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.StatusPollInterval <= 0 {
		problems = append(problems, "workflow.status_poll_interval must be positive")
	}
	if c.Workflow.MaxStatusChecks < 1 {
		problems = append(problems, "workflow.max_status_checks must be at least 1")
	}
	if c.Workflow.AutoClearCompletedAfter < 0 {
		problems = append(problems, "workflow.auto_clear_completed_after must not be negative")
	}
	if c.Workflow.WatchInterval <= 0 {
		problems = append(problems, "workflow.watch_interval must be positive")
	}
	return problems
}

func (c *Config) validateHistory() []string {
	var problems []string
	if c.History.RetentionDays < 0 {
		problems = append(problems, "history.retention_days must not be negative")
	}
	return problems
}

func (c *Config) validateLogging() []string {
	var problems []string
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q must be debug, info, warn, or error", c.Logging.Level))
	}
	return problems
}
