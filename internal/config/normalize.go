package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDocker()
	c.normalizeTracker()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	if value, ok := os.LookupEnv("DOCKHAND_STATE_FILE"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ProgressFile = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.ProgressFile) == "" {
		c.Paths.ProgressFile = filepath.Join(c.Paths.StateDir, defaultProgressFileName)
	}
	if c.Paths.ProgressFile, err = expandPath(c.Paths.ProgressFile); err != nil {
		return fmt.Errorf("paths.progress_file: %w", err)
	}

	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = filepath.Join(c.Paths.StateDir, defaultHistoryFileName)
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeDocker() {
	if value, ok := os.LookupEnv("DOCKER_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Docker.Binary = value
	}
	c.Docker.Binary = strings.TrimSpace(c.Docker.Binary)
	if c.Docker.Binary == "" {
		c.Docker.Binary = defaultDockerBinary
	}
	env := c.Docker.ExtraEnv[:0]
	for _, entry := range c.Docker.ExtraEnv {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			env = append(env, trimmed)
		}
	}
	c.Docker.ExtraEnv = env
}

func (c *Config) normalizeTracker() {
	if c.Tracker.ErrorTailLines == 0 {
		c.Tracker.ErrorTailLines = defaultErrorTailLines
	}
	if c.Tracker.ProgressBucket == 0 {
		c.Tracker.ProgressBucket = defaultProgressBucket
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
