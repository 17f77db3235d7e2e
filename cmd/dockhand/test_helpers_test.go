package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"dockhand/internal/config"
	"dockhand/internal/testsupport"
)

const fakeDockerScript = `MARKER=%q
case "$1" in
  version)
    echo 27.0.0
    ;;
  build)
    echo "Sending build context to Docker daemon  2.048kB"
    echo "Step 1/2 : FROM alpine:3.20"
    echo "Step 2/2 : RUN true"
    echo "Successfully built 0d1f2e3c4b5a"
    ;;
  push)
    echo "The push refers to repository [docker.io/example/app]"
    if [ -f "$MARKER" ]; then
      echo "5f70bf18a086: Layer already exists"
      echo "1.0: digest: sha256:%s size: 528"
      exit 0
    fi
    touch "$MARKER"
    echo "5f70bf18a086: Preparing"
    echo "5f70bf18a086: Pushing"
    echo "unexpected EOF" >&2
    exit 1
    ;;
  *)
    echo "$@"
    ;;
esac`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("DOCKHAND_STATE_FILE", "")
	t.Setenv("DOCKER_BINARY", "")

	marker := filepath.Join(base, "push-attempted")
	script := fmt.Sprintf(fakeDockerScript, marker, strings.Repeat("ab", 32))
	cfg := testsupport.NewConfig(t, testsupport.WithFakeDocker(script))

	configPath := filepath.Join(homeDir, ".config", "dockhand", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	testsupport.WriteFile(t, path, string(data))
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
