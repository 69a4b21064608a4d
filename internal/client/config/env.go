package config

// Environment variables read by parseEnv.
const (
	EnvServerURL = "FIRESTATION_API_URL"
	EnvLogLevel  = "FIRESTATION_LOG_LEVEL"
	EnvLogFormat = "FIRESTATION_LOG_FORMAT"
)

// parseEnv overlays cfg with non-empty environment variables.
func parseEnv(cfg *Config, getenv func(string) string) {
	if v := getenv(EnvServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
}
