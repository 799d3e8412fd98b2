package config

// Package config provides structures and utilities for managing application configuration.

import "time"

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
// This is used when loading configuration from an embedded source (e.g., a compiled binary).
type EmbeddedConfig []byte

// LockConfig holds configuration for the cross-process workspace lock.
// Intervals are integer milliseconds and the staleness threshold is integer
// seconds so that values can be overridden from plain environment variables.
type LockConfig struct {
	MaxAttempts     int     `yaml:"max_attempts"`     // MaxAttempts is the maximum number of acquisition attempts.
	InitialInterval int     `yaml:"initial_interval"` // InitialInterval is the initial backoff interval in milliseconds.
	MaxInterval     int     `yaml:"max_interval"`     // MaxInterval is the maximum backoff interval in milliseconds.
	Factor          float64 `yaml:"factor"`           // Factor is the factor by which the interval increases (e.g., 1.5 for exponential backoff).
	StaleThreshold  int     `yaml:"stale_threshold"`  // StaleThreshold is the age in seconds after which a held lock may be broken.
}

// InitialBackoff returns the initial backoff interval as a duration.
func (c LockConfig) InitialBackoff() time.Duration {
	return time.Duration(c.InitialInterval) * time.Millisecond
}

// MaxBackoff returns the maximum backoff interval as a duration.
func (c LockConfig) MaxBackoff() time.Duration {
	return time.Duration(c.MaxInterval) * time.Millisecond
}

// StaleAfter returns the staleness threshold as a duration.
func (c LockConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleThreshold) * time.Second
}

// WorkspaceConfig holds configuration for the document workspace itself.
type WorkspaceConfig struct {
	// DataDir is the directory holding the collection document files and the lock sentinel.
	DataDir string `yaml:"data_dir"`
	// Lock is the cross-process lock configuration.
	Lock LockConfig `yaml:"lock"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC", "Asia/Tokyo").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig holds metrics collection settings.
type MetricsConfig struct {
	// Enabled selects the Prometheus recorder instead of the no-op recorder.
	Enabled bool `yaml:"enabled"`
}

// DaybookConfig holds all configuration under the "daybook" top-level key.
type DaybookConfig struct {
	// Workspace contains the document store and lock configuration.
	Workspace WorkspaceConfig `yaml:"workspace"`
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Metrics contains metrics collection settings.
	Metrics MetricsConfig `yaml:"metrics"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Daybook contains the top-level configuration for the workspace.
	Daybook DaybookConfig `yaml:"daybook"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
//
// Returns:
//
//	A pointer to a new Config instance initialized with default settings.
func NewConfig() *Config {
	return &Config{
		Daybook: DaybookConfig{
			Workspace: WorkspaceConfig{
				DataDir: "./data",
				Lock: LockConfig{
					MaxAttempts:     20,
					InitialInterval: 100,  // 100ms initial backoff.
					MaxInterval:     1000, // 1s backoff ceiling.
					Factor:          1.5,
					StaleThreshold:  15, // A lock held longer than 15s may be broken.
				},
			},
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Metrics: MetricsConfig{
				Enabled: false,
			},
		},
	}
}
