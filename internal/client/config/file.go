package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/firestation/internal/flagx"
	"github.com/dmitrijs2005/firestation/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for config file unmarshalling.
// It relies on timex.Duration so intervals can be written either as
// strings like "10s" or as integer nanoseconds. Zero values leave the
// corresponding Config field untouched.
type FileConfig struct {
	ServerURL      string         `json:"server_url" yaml:"server_url"`
	VerifyInterval timex.Duration `json:"verify_interval" yaml:"verify_interval"`
	VerifyTimeout  timex.Duration `json:"verify_timeout" yaml:"verify_timeout"`
	StoragePath    string         `json:"storage_path" yaml:"storage_path"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
	LogFormat      string         `json:"log_format" yaml:"log_format"`
}

// parseFile overlays cfg with the file named by -c/-config or
// $FIRESTATION_CONFIG. Files ending in .yaml or .yml are read as YAML,
// anything else as JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	if fc.ServerURL != "" {
		cfg.ServerURL = fc.ServerURL
	}
	if fc.VerifyInterval.Duration != 0 {
		cfg.VerifyInterval = fc.VerifyInterval.Duration
	}
	if fc.VerifyTimeout.Duration != 0 {
		cfg.VerifyTimeout = fc.VerifyTimeout.Duration
	}
	if fc.StoragePath != "" {
		cfg.StoragePath = fc.StoragePath
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
}
