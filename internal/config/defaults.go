package config

// Default returns the baseline configuration. Loading merges file values over
// these, so every field has a working default.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   "~/.local/share/intake/logs",
			WatchDir: "",
		},
		Pipeline: Pipeline{
			BaseURL:        "",
			AuthToken:      "",
			RequestTimeout: 30,
			UploadTimeout:  600,
		},
		Workflow: Workflow{
			MaxConcurrency:          3,
			QueuePollInterval:       2,
			StatusPollInterval:      3,
			MaxStatusChecks:         200,
			AutoClearCompletedAfter: 0,
			WatchInterval:           5,
		},
		Notifications: Notifications{
			NtfyTopic:      "",
			RequestTimeout: 30,
		},
		History: History{
			Enabled:       true,
			RetentionDays: 90,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
