package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dockhand/internal/config"
)

// PruneDailyLogs removes daily log files in dir whose date is more than
// retentionDays before now. The date comes from the file name, so copying or
// touching a log does not extend its life. Other files are left alone. It
// returns the number of files removed; retentionDays <= 0 disables pruning.
func PruneDailyLogs(logger *slog.Logger, dir string, retentionDays int, now time.Time) int {
	if retentionDays <= 0 || strings.TrimSpace(dir) == "" {
		return 0
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	cutoff := today.AddDate(0, 0, -retentionDays)

	removed := 0
	for _, entry := range entries {
		day, ok := dailyLogDate(entry)
		if !ok || !day.Before(cutoff) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check ownership of log_dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Debug("old logs pruned",
			Int("removed", removed),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}

func dailyLogDate(entry os.DirEntry) (time.Time, bool) {
	if entry.IsDir() {
		return time.Time{}, false
	}
	name := entry.Name()
	if !strings.HasPrefix(name, config.LogFilePrefix) || !strings.HasSuffix(name, ".log") {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, config.LogFilePrefix), ".log")
	day, err := time.ParseInLocation(config.LogFileDateLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
