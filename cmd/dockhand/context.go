package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"dockhand/internal/config"
	"dockhand/internal/history"
	"dockhand/internal/logging"
	"dockhand/internal/progress"
)

type commandContext struct {
	configFlag *string
	stateFlag  *string
	quietFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, stateFlag *string, quietFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		stateFlag:  stateFlag,
		quietFlag:  quietFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.stateFlag != nil && strings.TrimSpace(*c.stateFlag) != "" {
			statePath, err := config.ExpandPath(strings.TrimSpace(*c.stateFlag))
			if err != nil {
				c.configErr = fmt.Errorf("resolve --state: %w", err)
				return
			}
			cfg.Paths.ProgressFile = statePath
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the CLI logger once and prunes expired log files.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		logging.PruneDailyLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, time.Now())
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) quiet() bool {
	return c.quietFlag != nil && *c.quietFlag
}

func (c *commandContext) tracker(logger *slog.Logger) (*progress.Tracker, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return progress.Open(cfg.Paths.ProgressFile, logger), nil
}

// openHistory returns nil when the ledger is disabled. Expired attempts are
// pruned on open.
func (c *commandContext) openHistory(ctx context.Context) (*history.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Tracker.HistoryEnabled {
		return nil, nil
	}
	store, err := history.Open(ctx, cfg.Paths.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if days := cfg.Tracker.HistoryRetention; days > 0 {
		if _, err := store.Prune(ctx, time.Now().AddDate(0, 0, -days)); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
