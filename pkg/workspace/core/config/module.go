// Package config provides configuration structures and utilities for the
// workspace. This file defines the Fx providers for configuration-related
// components.
package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts and provides *LoggingConfig from *Config.
// This allows other Fx components to depend only on the logging configuration.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Daybook.System.Logging
}

// NewWorkspaceConfigProvider extracts and provides *WorkspaceConfig from *Config.
func NewWorkspaceConfigProvider(cfg *Config) *WorkspaceConfig {
	return &cfg.Daybook.Workspace
}

// Module provides configuration-related components to Fx. The *Config itself
// is supplied by the application after loading it with LoadConfig.
var Module = fx.Options(
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(NewWorkspaceConfigProvider),
	// Provides an instance of EnvironmentExpander (specifically OsEnvironmentExpander)
	// as the EnvironmentExpander interface, making it available for dependency injection.
	fx.Provide(func() EnvironmentExpander {
		return NewOsEnvironmentExpander()
	}),
)
