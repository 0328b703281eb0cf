// Package config provides configuration loading and validation for repostats.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidWorkers        = errors.New("workers must not be negative")
	ErrInvalidChunkBounds    = errors.New("chunk size bounds must satisfy 0 <= min <= max")
	ErrInvalidProgressBuffer = errors.New("progress buffer must not be negative")
	ErrInvalidLogLevel       = errors.New("unknown log level")
	ErrInvalidLogFormat      = errors.New("unknown log format")
)

// Default configuration values.
const (
	defaultProgressBuffer = 64
	defaultMetricsAddr    = "localhost:9464"
)

// Config holds all configuration for the repostats CLI.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AnalysisConfig holds engine resource knobs. Zero values select the
// engine's built-in calibration.
type AnalysisConfig struct {
	Workers        int `mapstructure:"workers"`
	MinChunkSize   int `mapstructure:"min_chunk_size"`
	MaxChunkSize   int `mapstructure:"max_chunk_size"`
	ProgressBuffer int `mapstructure:"progress_buffer"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds the optional Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("repostats")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/repostats")
	}

	viperCfg.SetEnvPrefix("REPOSTATS")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// Analysis defaults. Zero means the engine calibrates itself.
	viperCfg.SetDefault("analysis.workers", 0)
	viperCfg.SetDefault("analysis.min_chunk_size", 0)
	viperCfg.SetDefault("analysis.max_chunk_size", 0)
	viperCfg.SetDefault("analysis.progress_buffer", defaultProgressBuffer)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")

	// Metrics defaults.
	viperCfg.SetDefault("metrics.enabled", false)
	viperCfg.SetDefault("metrics.addr", defaultMetricsAddr)
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.Analysis.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, config.Analysis.Workers)
	}

	if config.Analysis.MinChunkSize < 0 || config.Analysis.MaxChunkSize < 0 {
		return fmt.Errorf("%w: min=%d max=%d", ErrInvalidChunkBounds,
			config.Analysis.MinChunkSize, config.Analysis.MaxChunkSize)
	}

	if config.Analysis.MaxChunkSize > 0 && config.Analysis.MinChunkSize > config.Analysis.MaxChunkSize {
		return fmt.Errorf("%w: min=%d max=%d", ErrInvalidChunkBounds,
			config.Analysis.MinChunkSize, config.Analysis.MaxChunkSize)
	}

	if config.Analysis.ProgressBuffer < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidProgressBuffer, config.Analysis.ProgressBuffer)
	}

	switch config.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, config.Logging.Level)
	}

	switch config.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	return nil
}
