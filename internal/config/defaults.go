package config

const (
	defaultConfigPath       = "~/.config/dockhand/config.toml"
	defaultStateDir         = "~/.local/share/dockhand"
	defaultLogDir           = "~/.local/share/dockhand/logs"
	defaultProgressFileName = ".docker_progress.json"
	defaultHistoryFileName  = "history.db"
	defaultDockerBinary     = "docker"
	defaultErrorTailLines   = 10
	defaultProgressBucket   = 10
	defaultHistoryRetention = 90
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Docker: Docker{
			Binary: defaultDockerBinary,
		},
		Tracker: Tracker{
			ErrorTailLines:   defaultErrorTailLines,
			EchoOutput:       true,
			ProgressBucket:   defaultProgressBucket,
			HistoryEnabled:   true,
			HistoryRetention: defaultHistoryRetention,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
