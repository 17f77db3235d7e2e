package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"dockhand/internal/config"
	"dockhand/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "info"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(cfg.LogFilePath())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleFormatIncludesComponentAndOperation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithOperationID(context.Background(), "build:app")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "runner"))
	logger.Info("step", logging.Int("current", 3), logging.String("instruction", "RUN make"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "INFO runner: [build:app] step") {
		t.Fatalf("unexpected console prefix: %q", line)
	}
	if !strings.Contains(line, `instruction="RUN make"`) {
		t.Fatalf("expected quoted attribute, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("info logs should not carry source info: %q", line)
	}
}

func TestJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithRunID(context.Background(), "run-1")
	logging.WithContext(ctx, logger).Warn("careful", logging.Duration("duration", 1500*time.Millisecond+300*time.Microsecond))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if payload[logging.FieldRunID] != "run-1" {
		t.Fatalf("expected run id, got %v", payload[logging.FieldRunID])
	}
	ts, ok := payload["ts"].(string)
	if !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if _, err := time.Parse("2006-01-02T15:04:05.000Z07:00", ts); err != nil {
		t.Fatalf("unexpected ts format %q: %v", ts, err)
	}
	if payload["duration"] != "1.5s" {
		t.Fatalf("expected rounded duration, got %v", payload["duration"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "history unavailable", "history_open_failed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("expected %s in %v", key, payload)
		}
	}
}

func TestPruneDailyLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 20, 15, 0, 0, 0, time.Local)
	names := []string{
		"dockhand-2026-03-01.log",
		"dockhand-2026-03-14.log",
		"dockhand-2026-03-15.log",
		"dockhand-2026-03-20.log",
		"dockhand-notes.log",
		"other-2026-01-01.log",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	removed := logging.PruneDailyLogs(nil, dir, 5, now)
	if removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	for _, name := range []string{"dockhand-2026-03-01.log", "dockhand-2026-03-14.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, err=%v", name, err)
		}
	}
	for _, name := range names[2:] {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to remain: %v", name, err)
		}
	}
	if logging.PruneDailyLogs(nil, dir, 0, now) != 0 {
		t.Fatal("retention 0 should disable pruning")
	}
}
