package dockercmd

import (
	"strings"
)

// Kind classifies a docker invocation.
type Kind string

const (
	KindBuild Kind = "build"
	KindPush  Kind = "push"
	KindPull  Kind = "pull"
	KindTag   Kind = "tag"
	KindOther Kind = "other"
)

// Command is a classified docker argv. Args never include the docker binary.
type Command struct {
	Kind  Kind
	Image string
	Args  []string
}

// globalValueFlags are docker top-level flags that consume the following argument.
var globalValueFlags = map[string]struct{}{
	"-c": {}, "--context": {},
	"-H": {}, "--host": {},
	"--config":    {},
	"-l":          {},
	"--log-level": {},
	"--tlscacert": {}, "--tlscert": {}, "--tlskey": {},
}

// valueFlags lists subcommand flags that consume the following argument, so
// their values are not mistaken for positional image references.
var valueFlags = map[Kind]map[string]struct{}{
	KindBuild: {
		"-f": {}, "--file": {}, "--build-arg": {}, "--target": {}, "--platform": {},
		"--label": {}, "--cache-from": {}, "--cache-to": {}, "--network": {},
		"--progress": {}, "--secret": {}, "--ssh": {}, "-o": {}, "--output": {},
		"--iidfile": {}, "--add-host": {}, "--shm-size": {}, "-m": {}, "--memory": {},
		"--builder": {}, "--metadata-file": {},
	},
	KindPush: {"--platform": {}},
	KindPull: {"--platform": {}},
}

// Parse classifies argv. A leading "docker" element is tolerated and dropped.
func Parse(args []string) Command {
	cleaned := make([]string, 0, len(args))
	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) > 0 && isDockerBinary(cleaned[0]) {
		cleaned = cleaned[1:]
	}

	cmd := Command{Kind: KindOther, Args: cleaned}
	rest := skipGlobalFlags(cleaned)
	if len(rest) == 0 {
		return cmd
	}

	sub := strings.ToLower(rest[0])
	rest = rest[1:]
	switch sub {
	case "image":
		// docker image build|push|pull|tag
		if len(rest) == 0 {
			return cmd
		}
		sub = strings.ToLower(rest[0])
		rest = rest[1:]
	case "buildx", "builder":
		if len(rest) == 0 || strings.ToLower(rest[0]) != "build" {
			return cmd
		}
		sub = "build"
		rest = rest[1:]
	}

	switch sub {
	case "build":
		cmd.Kind = KindBuild
		cmd.Image = firstTag(rest)
	case "push":
		cmd.Kind = KindPush
		cmd.Image = nthPositional(rest, KindPush, 0)
	case "pull":
		cmd.Kind = KindPull
		cmd.Image = nthPositional(rest, KindPull, 0)
	case "tag":
		cmd.Kind = KindTag
		cmd.Image = nthPositional(rest, KindTag, 1)
	}
	return cmd
}

func isDockerBinary(value string) bool {
	base := value
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.TrimSuffix(strings.ToLower(base), ".exe")
	return base == "docker"
}

func skipGlobalFlags(args []string) []string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			return args[i:]
		}
		if _, ok := globalValueFlags[arg]; ok {
			i++
		}
	}
	return nil
}

// firstTag returns the first -t/--tag value in build arguments.
func firstTag(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-t" || arg == "--tag":
			if i+1 < len(args) {
				return args[i+1]
			}
			return ""
		case strings.HasPrefix(arg, "--tag="):
			return strings.TrimPrefix(arg, "--tag=")
		case strings.HasPrefix(arg, "-t") && !strings.HasPrefix(arg, "--") && len(arg) > 2:
			return strings.TrimPrefix(strings.TrimPrefix(arg, "-t"), "=")
		}
	}
	return ""
}

func nthPositional(args []string, kind Kind, n int) string {
	flags := valueFlags[kind]
	seen := 0
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if _, ok := flags[arg]; ok {
				i++
			}
			continue
		}
		if seen == n {
			return arg
		}
		seen++
	}
	return ""
}
