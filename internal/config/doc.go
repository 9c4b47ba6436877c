// Package config loads, validates, and normalizes intake's TOML
// configuration. Defaults are applied first and file values merged over them,
// so a missing or partial config file always yields a complete Config.
package config
