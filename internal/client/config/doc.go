// Package config loads runtime configuration for the FireStation client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c / -config or $FIRESTATION_CONFIG.
//     JSON, or YAML when the name ends in .yaml / .yml.
//  3. Environment: FIRESTATION_API_URL, FIRESTATION_LOG_LEVEL,
//     FIRESTATION_LOG_FORMAT.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the API
//	-i int      session check interval (seconds)
//	-t int      session check timeout (seconds)
//	-d string   path of the local session database
//
// # File schema
//
// Intervals use timex.Duration, so values can be either strings like "10s"
// or integer nanoseconds:
//
//	{
//	  "server_url": "http://localhost:8000/api",
//	  "verify_interval": "10s",
//	  "verify_timeout": "5s",
//	  "storage_path": "firestation.db",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// The resulting Config is validated before LoadConfig returns it.
package config
