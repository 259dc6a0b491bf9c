package config

import (
	"time"

	"github.com/limengmingx/stixtoneolib/internal/observability"
)

// Config is the root configuration for the stixtoneo ingestion engine.
type Config struct {
	Core    CoreConfig                  `mapstructure:"core" yaml:"core" validate:"required"`
	Graph   GraphConfig                 `mapstructure:"graph" yaml:"graph" validate:"required"`
	History HistoryConfig               `mapstructure:"history" yaml:"history"`
	Logging observability.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tracing observability.TracingConfig `mapstructure:"tracing" yaml:"tracing"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	HomeDir string        `mapstructure:"home_dir" yaml:"home_dir"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	Debug   bool          `mapstructure:"debug" yaml:"debug"`
}

// GraphConfig contains Neo4j connection settings for the property graph store.
type GraphConfig struct {
	URI               string        `mapstructure:"uri" yaml:"uri"`
	Username          string        `mapstructure:"username" yaml:"username"`
	Password          string        `mapstructure:"password" yaml:"password"`
	Database          string        `mapstructure:"database" yaml:"database"`
	MaxConnections    int           `mapstructure:"max_connections" yaml:"max_connections" validate:"min=1,max=100"`
	ConnectionTimeout time.Duration `mapstructure:"connection_timeout" yaml:"connection_timeout" validate:"min=1s"`
}

// HistoryConfig contains the ingestion run ledger database configuration.
type HistoryConfig struct {
	Path       string        `mapstructure:"path" yaml:"path"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=1s"`
	WALMode    bool          `mapstructure:"wal_mode" yaml:"wal_mode"`
	AutoVacuum bool          `mapstructure:"auto_vacuum" yaml:"auto_vacuum"`
}
