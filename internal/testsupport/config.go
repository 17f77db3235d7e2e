package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"dockhand/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.ProgressFile = filepath.Join(base, "state", ".docker_progress.json")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTailLines overrides how many output lines a failure keeps.
func WithTailLines(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tracker.ErrorTailLines = n
	}
}

// WithoutHistory disables the attempt ledger.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tracker.HistoryEnabled = false
	}
}

// WithFakeDocker writes an executable shell script standing in for docker and
// points the config at it. The script receives the docker argv unchanged.
func WithFakeDocker(script string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "docker")
		if err := os.WriteFile(target, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
			b.t.Fatalf("write fake docker: %v", err)
		}
		b.cfg.Docker.Binary = target
	}
}
