package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/limengmingx/stixtoneolib/internal/util"
)

// ConfigLoader handles loading configuration from files.
type ConfigLoader interface {
	Load(path string) (*Config, error)
	LoadWithDefaults(path string) (*Config, error)
}

// viperConfigLoader implements ConfigLoader using Viper.
type viperConfigLoader struct {
	validator ConfigValidator
}

// NewConfigLoader creates a new ConfigLoader instance.
func NewConfigLoader(validator ConfigValidator) ConfigLoader {
	return &viperConfigLoader{
		validator: validator,
	}
}

// Load loads configuration from the specified file path.
// Returns an error if the file doesn't exist or cannot be parsed.
func (l *viperConfigLoader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into Config struct first
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Read raw config into map for environment variable interpolation
	rawConfig := v.AllSettings()
	interpolatedConfig := interpolateEnvVars(rawConfig)

	// Apply environment variable interpolation to the unmarshaled config
	if interpolatedMap, ok := interpolatedConfig.(map[string]interface{}); ok {
		applyInterpolation(&cfg, interpolatedMap)
	}

	// Fill in defaults for sections the file omitted
	applyDefaults(&cfg)

	// Expand tildes and env references in path fields
	expandPaths(&cfg)

	// Validate the loaded configuration
	if err := l.validator.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// expandPaths expands tilde and environment variable references in the
// path-valued fields, so "~/.stixtoneo/stixtoneo.db" in a config file
// resolves the same way it would on a shell command line. Fields that
// fail to expand keep their raw value for validation to report.
func expandPaths(cfg *Config) {
	if expanded, err := util.ExpandPath(cfg.Core.HomeDir); err == nil {
		cfg.Core.HomeDir = expanded
	}
	if expanded, err := util.ExpandPath(cfg.History.Path); err == nil {
		cfg.History.Path = expanded
	}
	if cfg.Logging.Output != "stdout" && cfg.Logging.Output != "stderr" {
		if expanded, err := util.ExpandPath(cfg.Logging.Output); err == nil {
			cfg.Logging.Output = expanded
		}
	}
}

// applyDefaults backfills zero-valued fields so that partial config files
// validate against the same rules as complete ones.
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Core.HomeDir == "" {
		cfg.Core.HomeDir = defaults.Core.HomeDir
	}
	if cfg.Core.Timeout == 0 {
		cfg.Core.Timeout = defaults.Core.Timeout
	}

	if cfg.Graph.URI == "" {
		cfg.Graph.URI = defaults.Graph.URI
	}
	if cfg.Graph.Username == "" {
		cfg.Graph.Username = defaults.Graph.Username
	}
	if cfg.Graph.Database == "" {
		cfg.Graph.Database = defaults.Graph.Database
	}
	if cfg.Graph.MaxConnections == 0 {
		cfg.Graph.MaxConnections = defaults.Graph.MaxConnections
	}
	if cfg.Graph.ConnectionTimeout == 0 {
		cfg.Graph.ConnectionTimeout = defaults.Graph.ConnectionTimeout
	}

	if cfg.History.Path == "" {
		cfg.History.Path = defaults.History.Path
	}
	if cfg.History.Timeout == 0 {
		cfg.History.Timeout = defaults.History.Timeout
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaults.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaults.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = defaults.Logging.Output
	}

	if cfg.Tracing.Provider == "" {
		cfg.Tracing.Provider = defaults.Tracing.Provider
	}
	if cfg.Tracing.SampleRate == 0 {
		cfg.Tracing.SampleRate = defaults.Tracing.SampleRate
	}
}

// LoadWithDefaults loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration.
func (l *viperConfigLoader) LoadWithDefaults(path string) (*Config, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		// Validate default configuration
		if err := l.validator.Validate(cfg); err != nil {
			return nil, fmt.Errorf("default configuration validation failed: %w", err)
		}
		return cfg, nil
	}

	// File exists, load it normally
	cfg, err := l.Load(path)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// interpolateEnvVars recursively interpolates environment variables in the config map.
// Supports ${VAR_NAME} syntax.
func interpolateEnvVars(data interface{}) interface{} {
	switch v := data.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{})
		for key, value := range v {
			result[key] = interpolateEnvVars(value)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, value := range v {
			result[i] = interpolateEnvVars(value)
		}
		return result
	case string:
		return interpolateString(v)
	default:
		return v
	}
}

// interpolateString replaces ${VAR_NAME} with environment variable values.
func interpolateString(s string) string {
	// Regular expression to match ${VAR_NAME}
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name (remove ${ and })
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")

		// Get environment variable value
		if envValue := os.Getenv(varName); envValue != "" {
			return envValue
		}

		// If not found, return original match
		return match
	})
}

// applyInterpolation applies the interpolated values back to the Config struct.
// Only string fields that commonly carry ${VAR} references are covered.
func applyInterpolation(cfg *Config, interpolated map[string]interface{}) {
	if core, ok := interpolated["core"].(map[string]interface{}); ok {
		if homeDir, ok := core["home_dir"].(string); ok {
			cfg.Core.HomeDir = interpolateString(homeDir)
		}
	}

	if graph, ok := interpolated["graph"].(map[string]interface{}); ok {
		if uri, ok := graph["uri"].(string); ok {
			cfg.Graph.URI = interpolateString(uri)
		}
		if username, ok := graph["username"].(string); ok {
			cfg.Graph.Username = interpolateString(username)
		}
		if password, ok := graph["password"].(string); ok {
			cfg.Graph.Password = interpolateString(password)
		}
		if database, ok := graph["database"].(string); ok {
			cfg.Graph.Database = interpolateString(database)
		}
	}

	if history, ok := interpolated["history"].(map[string]interface{}); ok {
		if path, ok := history["path"].(string); ok {
			cfg.History.Path = interpolateString(path)
		}
	}

	if logging, ok := interpolated["logging"].(map[string]interface{}); ok {
		if level, ok := logging["level"].(string); ok {
			cfg.Logging.Level = interpolateString(level)
		}
		if format, ok := logging["format"].(string); ok {
			cfg.Logging.Format = interpolateString(format)
		}
		if output, ok := logging["output"].(string); ok {
			cfg.Logging.Output = interpolateString(output)
		}
	}

	if tracing, ok := interpolated["tracing"].(map[string]interface{}); ok {
		if endpoint, ok := tracing["endpoint"].(string); ok {
			cfg.Tracing.Endpoint = interpolateString(endpoint)
		}
	}
}
