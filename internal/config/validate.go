package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDocker(); err != nil {
		return err
	}
	if err := c.validateTracker(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ProgressFile) == "" {
		return errors.New("paths.progress_file must be set")
	}
	if strings.HasSuffix(c.Paths.ProgressFile, "/") {
		return errors.New("paths.progress_file must name a file, not a directory")
	}
	return nil
}

func (c *Config) validateDocker() error {
	if strings.TrimSpace(c.Docker.Binary) == "" {
		return errors.New("docker.binary must be set")
	}
	if c.Docker.TimeoutSeconds < 0 {
		return errors.New("docker.timeout_seconds must be zero (no timeout) or positive")
	}
	for _, entry := range c.Docker.ExtraEnv {
		if !strings.Contains(entry, "=") {
			return fmt.Errorf("docker.extra_env entry %q must be KEY=VALUE", entry)
		}
	}
	return nil
}

func (c *Config) validateTracker() error {
	if c.Tracker.ErrorTailLines <= 0 {
		return errors.New("tracker.error_tail_lines must be positive")
	}
	if c.Tracker.ProgressBucket <= 0 || c.Tracker.ProgressBucket > 100 {
		return errors.New("tracker.progress_bucket must be between 0 and 100")
	}
	if c.Tracker.HistoryRetention < 0 {
		return errors.New("tracker.history_retention_days must be zero (keep forever) or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero (disabled) or positive")
	}
	return nil
}
