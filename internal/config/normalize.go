package config

import "strings"

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStrings()
	return nil
}

func (c *Config) normalizePaths() error {
	logDir, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir

	if strings.TrimSpace(c.Paths.WatchDir) != "" {
		watchDir, err := expandPath(c.Paths.WatchDir)
		if err != nil {
			return err
		}
		c.Paths.WatchDir = watchDir
	} else {
		c.Paths.WatchDir = ""
	}
	return nil
}

func (c *Config) normalizeStrings() {
	c.Pipeline.BaseURL = strings.TrimRight(strings.TrimSpace(c.Pipeline.BaseURL), "/")
	c.Pipeline.AuthToken = strings.TrimSpace(c.Pipeline.AuthToken)
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}
