package config

import (
	"path/filepath"
	"time"

	"github.com/limengmingx/stixtoneolib/internal/observability"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	homeDir := DefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir: homeDir,
			Timeout: 30 * time.Minute,
			Debug:   false,
		},
		Graph: GraphConfig{
			URI:               "neo4j://localhost:7687",
			Username:          "neo4j",
			Password:          "",
			Database:          "neo4j",
			MaxConnections:    10,
			ConnectionTimeout: 30 * time.Second,
		},
		History: HistoryConfig{
			Path:       filepath.Join(homeDir, "stixtoneo.db"),
			Timeout:    30 * time.Second,
			WALMode:    true,
			AutoVacuum: true,
		},
		Logging: observability.LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
		Tracing: observability.TracingConfig{
			Enabled:    false,
			Provider:   "noop",
			SampleRate: 1.0,
		},
	}
}
