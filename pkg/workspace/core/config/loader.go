package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/harborlight/daybook/pkg/workspace/support/util/exception"
	"github.com/harborlight/daybook/pkg/workspace/support/util/logger"
)

// moduleName is the module name used for error reporting in this package.
const moduleName = "config"

// ConfigParams defines the dependencies required by NewConfigProvider.
type ConfigParams struct {
	fx.In

	// EmbeddedConfig is the embedded application.yaml content supplied by main.
	EmbeddedConfig EmbeddedConfig
	// EnvFilePath is the path to a .env file; optional.
	EnvFilePath string `name:"envFilePath" optional:"true"`
}

// NewConfigProvider is an Fx provider that loads the application configuration
// and applies the configured log level.
//
// params: The dependencies injected by Fx.
// Returns: The loaded Config instance, or an error if loading or validation fails.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := LoadConfig(params.EmbeddedConfig, params.EnvFilePath)
	if err != nil {
		return nil, err
	}
	logger.SetLogLevel(cfg.Daybook.System.Logging.Level)
	logger.Debugf("Configuration loaded: dataDir=%s, lock=%+v", cfg.Daybook.Workspace.DataDir, cfg.Daybook.Workspace.Lock)
	return cfg, nil
}

// LoadConfig loads the application configuration from multiple sources.
// Priority order (highest to lowest):
//  1. Environment variables (prefixed with DAYBOOK_)
//  2. Embedded YAML configuration
//  3. Default values
//
// embeddedConfig: The embedded YAML content. May be empty.
// envFilePath: The path to a .env file loaded before reading environment variables. May be empty.
// Returns: The loaded Config instance, or an error if parsing or validation fails.
func LoadConfig(embeddedConfig []byte, envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Debugf("Could not load .env file from '%s': %v. Proceeding with OS environment variables.", envFilePath, err)
		} else {
			logger.Infof("Loaded .env file from '%s'.", envFilePath)
		}
	}

	cfg := NewConfig()
	cfg.EmbeddedConfig = embeddedConfig

	if len(embeddedConfig) > 0 {
		// Expand ${VAR} references in the embedded YAML before unmarshaling so that
		// placeholders resolve against the process environment.
		expander := NewOsEnvironmentExpander()
		expanded := expander.Expand(string(embeddedConfig))

		loaded := &Config{}
		if err := yaml.Unmarshal([]byte(expanded), loaded); err != nil {
			return nil, exception.NewWorkspaceErrorf(moduleName, "failed to unmarshal embedded config", err)
		}
		mergeConfig(cfg, loaded)
	}

	if err := loadStructFromEnv(reflect.ValueOf(&cfg.Daybook).Elem(), "DAYBOOK"); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfig merges non-zero values from source into dest.
// Values explicitly present in the YAML override the defaults; zero values in the
// source are treated as "not set" and leave the defaults untouched.
func mergeConfig(dest, source *Config) {
	mergeWorkspaceConfig(&dest.Daybook.Workspace, &source.Daybook.Workspace)
	mergeSystemConfig(&dest.Daybook.System, &source.Daybook.System)
	dest.Daybook.Metrics.Enabled = source.Daybook.Metrics.Enabled
}

func mergeWorkspaceConfig(dest, source *WorkspaceConfig) {
	if source.DataDir != "" {
		dest.DataDir = source.DataDir
	}
	mergeLockConfig(&dest.Lock, &source.Lock)
}

func mergeLockConfig(dest, source *LockConfig) {
	if source.MaxAttempts != 0 {
		dest.MaxAttempts = source.MaxAttempts
	}
	if source.InitialInterval != 0 {
		dest.InitialInterval = source.InitialInterval
	}
	if source.MaxInterval != 0 {
		dest.MaxInterval = source.MaxInterval
	}
	if source.Factor != 0 {
		dest.Factor = source.Factor
	}
	if source.StaleThreshold != 0 {
		dest.StaleThreshold = source.StaleThreshold
	}
}

func mergeSystemConfig(dest, source *SystemConfig) {
	if source.Timezone != "" {
		dest.Timezone = source.Timezone
	}
	if source.Logging.Level != "" {
		dest.Logging.Level = source.Logging.Level
	}
}

// loadStructFromEnv recursively walks a struct and overrides fields from
// environment variables. The variable name for each field is built from the
// prefix and the field's yaml tag, upcased and joined with underscores
// (e.g., DAYBOOK_WORKSPACE_LOCK_MAX_ATTEMPTS).
//
// structVal: The struct value to populate.
// prefix: The environment variable prefix accumulated so far.
// Returns: An error if a struct field cannot be processed.
func loadStructFromEnv(structVal reflect.Value, prefix string) error {
	structType := structVal.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)

		yamlTag := field.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		tagName := strings.Split(yamlTag, ",")[0]
		envKey := prefix + "_" + strings.ToUpper(tagName)

		if fieldVal.Kind() == reflect.Struct {
			if err := loadStructFromEnv(fieldVal, envKey); err != nil {
				return err
			}
			continue
		}

		envValue, ok := os.LookupEnv(envKey)
		if !ok {
			continue
		}
		setField(fieldVal, envKey, envValue)
	}
	return nil
}

// setField assigns an environment variable string to a struct field,
// converting it to the field's kind. Unparseable values are logged and skipped
// so that a malformed override never silently zeroes a setting.
func setField(fieldVal reflect.Value, envKey, envValue string) {
	if !fieldVal.CanSet() {
		logger.Warnf("Cannot set config field from environment variable '%s'.", envKey)
		return
	}

	switch fieldVal.Kind() {
	case reflect.String:
		fieldVal.SetString(envValue)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err := strconv.ParseInt(envValue, 10, 64)
		if err != nil {
			logger.Warnf("Ignoring environment variable '%s': cannot parse '%s' as integer: %v", envKey, envValue, err)
			return
		}
		fieldVal.SetInt(parsed)
	case reflect.Float32, reflect.Float64:
		parsed, err := strconv.ParseFloat(envValue, 64)
		if err != nil {
			logger.Warnf("Ignoring environment variable '%s': cannot parse '%s' as float: %v", envKey, envValue, err)
			return
		}
		fieldVal.SetFloat(parsed)
	case reflect.Bool:
		parsed, err := strconv.ParseBool(envValue)
		if err != nil {
			logger.Warnf("Ignoring environment variable '%s': cannot parse '%s' as bool: %v", envKey, envValue, err)
			return
		}
		fieldVal.SetBool(parsed)
	default:
		logger.Warnf("Ignoring environment variable '%s': unsupported field kind '%s'.", envKey, fieldVal.Kind())
	}
}

// validateConfig checks the loaded configuration for values the workspace
// cannot operate with.
func validateConfig(cfg *Config) error {
	lock := cfg.Daybook.Workspace.Lock
	if cfg.Daybook.Workspace.DataDir == "" {
		return exception.NewWorkspaceErrorf(moduleName, "workspace data_dir must not be empty")
	}
	if lock.MaxAttempts < 1 {
		return exception.NewWorkspaceErrorf(moduleName, "lock max_attempts must be at least 1, got %d", lock.MaxAttempts)
	}
	if lock.InitialInterval < 1 {
		return exception.NewWorkspaceErrorf(moduleName, "lock initial_interval must be at least 1ms, got %d", lock.InitialInterval)
	}
	if lock.MaxInterval < lock.InitialInterval {
		return exception.NewWorkspaceErrorf(moduleName, "lock max_interval (%d) must not be below initial_interval (%d)", lock.MaxInterval, lock.InitialInterval)
	}
	if lock.Factor < 1.0 {
		return exception.NewWorkspaceErrorf(moduleName, "lock factor must be at least 1.0, got %f", lock.Factor)
	}
	if lock.StaleThreshold < 1 {
		return exception.NewWorkspaceErrorf(moduleName, "lock stale_threshold must be at least 1s, got %d", lock.StaleThreshold)
	}
	return nil
}
