package logger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level" env:"CRUCIBLE_LOG_LEVEL"`
	ConsoleEnabled bool   `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format" env:"CRUCIBLE_LOG_CONSOLE_FORMAT"`
	FileEnabled    bool   `yaml:"file_enabled" env:"CRUCIBLE_LOG_FILE_ENABLED"`
	FilePath       string `yaml:"file_path" env:"CRUCIBLE_LOG_FILE_PATH"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
}

// LoggingConfig wraps the Config for YAML parsing
type LoggingConfig struct {
	Logging Config `yaml:"logging"`
}

// DefaultConfig returns console-only text logging at INFO.
func DefaultConfig() Config {
	return Config{
		Level:          "INFO",
		ConsoleEnabled: true,
		ConsoleFormat:  "text",
		FilePath:       "logs/crucible.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig loads logging configuration from a YAML file and applies
// CRUCIBLE_LOG_* environment overrides. A missing file leaves the defaults
// in place; keys absent from the file keep their default values.
func LoadConfig(configPath string) (Config, error) {
	wrapped := LoggingConfig{Logging: DefaultConfig()}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("failed to read logging config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &wrapped); err != nil {
				return Config{}, fmt.Errorf("failed to parse logging config: %w", err)
			}
		}
	}

	config := wrapped.Logging
	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("failed to apply logging env overrides: %w", err)
	}
	return config, nil
}
