package config

import "os"

// EnvironmentExpander defines an interface for expanding environment variables within a string.
// This allows for abstracting os.ExpandEnv for testability.
type EnvironmentExpander interface {
	// Expand replaces ${var} or $var in the string based on the current environment variables.
	Expand(s string) string
}

// OsEnvironmentExpander is an implementation of EnvironmentExpander that uses os.ExpandEnv.
type OsEnvironmentExpander struct{}

// NewOsEnvironmentExpander creates a new instance of OsEnvironmentExpander.
func NewOsEnvironmentExpander() *OsEnvironmentExpander {
	return &OsEnvironmentExpander{}
}

// Expand replaces ${var} or $var in the string using os.ExpandEnv.
func (e *OsEnvironmentExpander) Expand(s string) string {
	return os.ExpandEnv(s)
}
