package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const daemonProbeTimeout = 5 * time.Second

// Status reports whether one piece of the docker toolchain is usable.
type Status struct {
	Name      string
	Command   string
	Available bool
	Detail    string
}

// CheckDocker reports on the docker CLI and, when the CLI resolves, on the
// daemon behind it.
func CheckDocker(ctx context.Context, dockerCommand string) []Status {
	cli := CheckDockerCLI(dockerCommand)
	if !cli.Available {
		return []Status{cli}
	}
	return []Status{cli, CheckDockerDaemon(ctx, cli.Command)}
}

// CheckDockerCLI resolves the configured docker binary. Detail holds the
// resolved path on success.
func CheckDockerCLI(dockerCommand string) Status {
	result := Status{Name: "Docker CLI", Command: strings.TrimSpace(dockerCommand)}
	path, detail, ok := resolve(result.Command)
	result.Available = ok
	if ok {
		result.Detail = path
	} else {
		result.Detail = detail
	}
	return result
}

// CheckDockerDaemon reports whether the docker CLI can reach a daemon. The
// detail carries the server version on success and the CLI's own message on
// failure, which usually names the socket it tried.
func CheckDockerDaemon(ctx context.Context, dockerCommand string) Status {
	result := Status{Name: "Docker daemon", Command: strings.TrimSpace(dockerCommand)}
	if _, detail, ok := resolve(result.Command); !ok {
		result.Detail = detail
		return result
	}

	probeCtx, cancel := context.WithTimeout(ctx, daemonProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, result.Command, "version", "--format", "{{.Server.Version}}") //nolint:gosec
	output, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(output))
	if err != nil {
		if probeCtx.Err() != nil {
			result.Detail = "daemon probe timed out"
			return result
		}
		if text == "" {
			text = err.Error()
		}
		result.Detail = firstLine(text)
		return result
	}
	result.Available = true
	if text != "" {
		result.Detail = "server " + firstLine(text)
	}
	return result
}

func resolve(command string) (path, detail string, ok bool) {
	if command == "" {
		return "", "command not configured; set docker.binary or DOCKER_BINARY", false
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Sprintf("binary %q not found", command), false
	}
	return path, "", true
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}
