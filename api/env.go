package api

// Environment variables recognised by mirrorctl.
const (
	// LogLevelEnv sets the log level, overridden by the -log-level flag.
	LogLevelEnv = "MIRRORCTL_LOGGING"
	// ConfigFileEnv sets the path to the JSON config file, overridden by
	// the -config flag.
	ConfigFileEnv = "MIRRORCTL_CONFIG_FILE"
)
