package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dockhand/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("DOCKHAND_STATE_FILE", "")
	t.Setenv("DOCKER_BINARY", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "dockhand")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.ProgressFile != filepath.Join(wantState, ".docker_progress.json") {
		t.Fatalf("unexpected progress file: %q", cfg.Paths.ProgressFile)
	}
	if cfg.Paths.HistoryDB != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history db: %q", cfg.Paths.HistoryDB)
	}
	if cfg.DockerBinary() != "docker" {
		t.Fatalf("unexpected docker binary: %q", cfg.DockerBinary())
	}
	if cfg.Tracker.ErrorTailLines != 10 {
		t.Fatalf("expected 10 error tail lines, got %d", cfg.Tracker.ErrorTailLines)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "dockhand.toml")
	t.Setenv("DOCKHAND_STATE_FILE", "")
	t.Setenv("DOCKER_BINARY", "")

	type payload struct {
		Paths struct {
			StateDir string `toml:"state_dir"`
		} `toml:"paths"`
		Docker struct {
			Binary         string `toml:"binary"`
			TimeoutSeconds int    `toml:"timeout_seconds"`
		} `toml:"docker"`
		Tracker struct {
			ErrorTailLines int `toml:"error_tail_lines"`
		} `toml:"tracker"`
	}
	custom := payload{}
	custom.Paths.StateDir = filepath.Join(tempDir, "state")
	custom.Docker.Binary = "podman"
	custom.Docker.TimeoutSeconds = 600
	custom.Tracker.ErrorTailLines = 25
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.DockerBinary() != "podman" {
		t.Fatalf("expected podman binary, got %q", cfg.DockerBinary())
	}
	if cfg.Docker.TimeoutSeconds != 600 {
		t.Fatalf("expected timeout 600, got %d", cfg.Docker.TimeoutSeconds)
	}
	if cfg.Tracker.ErrorTailLines != 25 {
		t.Fatalf("expected 25 tail lines, got %d", cfg.Tracker.ErrorTailLines)
	}
	if cfg.Paths.ProgressFile != filepath.Join(tempDir, "state", ".docker_progress.json") {
		t.Fatalf("progress file should follow state dir, got %q", cfg.Paths.ProgressFile)
	}
}

func TestEnvOverridesProgressFileAndBinary(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	statePath := filepath.Join(tempDir, "custom", "progress.json")
	t.Setenv("DOCKHAND_STATE_FILE", statePath)
	t.Setenv("DOCKER_BINARY", "/opt/docker/bin/docker")

	cfg, _, _, err := config.Load(filepath.Join(tempDir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.ProgressFile != statePath {
		t.Errorf("expected progress file from env, got %q", cfg.Paths.ProgressFile)
	}
	if cfg.DockerBinary() != "/opt/docker/bin/docker" {
		t.Errorf("expected docker binary from env, got %q", cfg.DockerBinary())
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "error_tail_lines") {
		t.Fatalf("sample config missing tracker section: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Tracker.ErrorTailLines != 10 {
		t.Fatalf("expected sample tail lines 10, got %d", cfg.Tracker.ErrorTailLines)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"negative timeout":   func(c *config.Config) { c.Docker.TimeoutSeconds = -1 },
		"empty binary":       func(c *config.Config) { c.Docker.Binary = "" },
		"zero tail":          func(c *config.Config) { c.Tracker.ErrorTailLines = 0 },
		"bucket too large":   func(c *config.Config) { c.Tracker.ProgressBucket = 150 },
		"bad env entry":      func(c *config.Config) { c.Docker.ExtraEnv = []string{"NOEQUALS"} },
		"bad log format":     func(c *config.Config) { c.Logging.Format = "xml" },
		"bad log level":      func(c *config.Config) { c.Logging.Level = "verbose" },
		"missing progress":   func(c *config.Config) { c.Paths.ProgressFile = "" },
		"negative retention": func(c *config.Config) { c.Tracker.HistoryRetention = -3 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Paths.ProgressFile = "/tmp/progress.json"
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", name)
			}
		})
	}

	cfg := config.Default()
	cfg.Paths.ProgressFile = "/tmp/progress.json"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
