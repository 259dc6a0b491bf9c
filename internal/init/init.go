// Package init prepares a stixtoneo home directory: the directory
// skeleton, a default configuration file, the run-ledger database, and
// a custom taxonomy overlay stub. Initialization is idempotent unless
// Force is set.
package init

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/limengmingx/stixtoneolib/internal/config"
	"github.com/limengmingx/stixtoneolib/internal/database"
)

// InitOptions configures the initialization process
type InitOptions struct {
	// HomeDir is the root directory for the installation.
	// If empty, uses the default from config.DefaultConfig().
	HomeDir string

	// Force recreates components even if they already exist.
	// WARNING: this overwrites existing configuration and drops the
	// existing run ledger.
	Force bool
}

// InitResult contains the results of the initialization process
type InitResult struct {
	// HomeDir is the final home directory used
	HomeDir string

	// DirsCreated lists all directories that were created (not pre-existing)
	DirsCreated []string

	// ConfigCreated indicates whether a new config file was written
	ConfigCreated bool

	// LedgerCreated indicates whether a new run-ledger database was created
	LedgerCreated bool

	// TaxonomySeeded indicates whether the custom taxonomy stub was written
	TaxonomySeeded bool

	// Errors contains any non-fatal errors encountered
	Errors []error

	// Warnings contains any warning messages
	Warnings []string
}

// Initializer defines the interface for home directory initialization
type Initializer interface {
	// Initialize performs the complete initialization process
	Initialize(ctx context.Context, opts InitOptions) (*InitResult, error)

	// Validate checks if an existing setup is valid
	Validate(ctx context.Context, homeDir string) (*ValidationResult, error)
}

// DefaultInitializer implements Initializer with default behavior
type DefaultInitializer struct {
	configLoader config.ConfigLoader
	dbOpener     func(path string) (*database.DB, error)
}

// NewInitializer creates a new DefaultInitializer with the provided dependencies
func NewInitializer(
	configLoader config.ConfigLoader,
	dbOpener func(path string) (*database.DB, error),
) *DefaultInitializer {
	return &DefaultInitializer{
		configLoader: configLoader,
		dbOpener:     dbOpener,
	}
}

// NewDefaultInitializer creates a new DefaultInitializer with standard dependencies
func NewDefaultInitializer() *DefaultInitializer {
	return NewInitializer(
		config.NewConfigLoader(config.NewValidator()),
		database.Open,
	)
}

// Initialize performs the complete initialization process in the
// following order:
//
//  1. Determine and create the home directory
//  2. Create the standard directory structure
//  3. Generate or keep the configuration file
//  4. Seed the custom taxonomy overlay stub
//  5. Initialize the run-ledger database and schema
//  6. Validate the complete setup
//
// The function is idempotent when Force=false: running it multiple
// times on the same directory will not overwrite existing resources.
func (i *DefaultInitializer) Initialize(ctx context.Context, opts InitOptions) (*InitResult, error) {
	result := &InitResult{
		DirsCreated: []string{},
		Errors:      []error{},
		Warnings:    []string{},
	}

	// Step 1: Determine home directory
	homeDir := opts.HomeDir
	if homeDir == "" {
		homeDir = config.DefaultConfig().Core.HomeDir
	}
	result.HomeDir = homeDir

	if err := os.MkdirAll(homeDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create home directory %s: %w", homeDir, err)
	}

	// Step 2: Create directory structure
	dirCfg := DefaultDirectories(homeDir)
	if err := i.createDirectoriesWithTracking(dirCfg, result); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	// Step 3: Generate or keep configuration
	configPath := config.DefaultConfigPath(homeDir)
	if err := i.initializeConfig(configPath, homeDir, result, opts.Force); err != nil {
		return nil, fmt.Errorf("failed to initialize configuration: %w", err)
	}

	// Step 4: Seed the custom taxonomy overlay
	seeded, err := SeedCustomTaxonomy(filepath.Join(homeDir, "taxonomy"), opts.Force)
	if err != nil {
		return nil, fmt.Errorf("failed to seed taxonomy overlay: %w", err)
	}
	result.TaxonomySeeded = seeded

	// Step 5: Initialize the run ledger
	ledgerPath := filepath.Join(homeDir, "stixtoneo.db")
	if err := i.initializeLedger(ledgerPath, result, opts.Force); err != nil {
		return nil, fmt.Errorf("failed to initialize run ledger: %w", err)
	}

	// Step 6: Validate the complete setup
	validation, err := i.Validate(ctx, homeDir)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("post-initialization validation failed: %w", err))
		return result, nil
	}
	if !validation.Valid {
		for _, verr := range validation.Errors {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %s", verr.Component, verr.Message))
		}
	}
	for _, warning := range validation.Warnings {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", warning.Component, warning.Message))
	}

	return result, nil
}

// createDirectoriesWithTracking creates directories and records which ones were new
func (i *DefaultInitializer) createDirectoriesWithTracking(cfg DirectoryConfig, result *InitResult) error {
	for _, dir := range cfg.Dirs {
		fullPath := filepath.Join(cfg.HomeDir, dir)

		_, err := os.Stat(fullPath)
		existed := err == nil

		if err := os.MkdirAll(fullPath, cfg.Permission); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", fullPath, err)
		}

		if !existed {
			result.DirsCreated = append(result.DirsCreated, fullPath)
		}
	}

	return nil
}

// initializeConfig creates or keeps the configuration file
func (i *DefaultInitializer) initializeConfig(
	configPath string,
	homeDir string,
	result *InitResult,
	force bool,
) error {
	_, err := os.Stat(configPath)
	configExists := err == nil

	if configExists && !force {
		// Keep the existing config but verify it still loads
		if _, err := i.configLoader.Load(configPath); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("existing config is invalid: %v", err))
		}
		return nil
	}

	cfg := config.DefaultConfig()
	cfg.Core.HomeDir = homeDir
	cfg.History.Path = filepath.Join(homeDir, "stixtoneo.db")

	if err := writeConfigFile(configPath, cfg); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	result.ConfigCreated = true
	if configExists {
		result.Warnings = append(result.Warnings, "overwrote existing configuration (--force mode)")
	}

	return nil
}

// initializeLedger creates the run-ledger database and applies the schema
func (i *DefaultInitializer) initializeLedger(ledgerPath string, result *InitResult, force bool) error {
	_, err := os.Stat(ledgerPath)
	ledgerExists := err == nil

	if ledgerExists && force {
		if err := os.Remove(ledgerPath); err != nil {
			return fmt.Errorf("failed to remove existing ledger: %w", err)
		}
		result.Warnings = append(result.Warnings, "removed existing run ledger (--force mode)")
		ledgerExists = false
	}

	db, err := i.dbOpener(ledgerPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger database: %w", err)
	}
	defer db.Close()

	if err := db.InitSchema(); err != nil {
		return fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	if !ledgerExists {
		result.LedgerCreated = true
	}

	return nil
}

// Validate checks if an existing installation is valid
func (i *DefaultInitializer) Validate(ctx context.Context, homeDir string) (*ValidationResult, error) {
	return ValidateSetup(ctx, homeDir)
}

// writeConfigFile writes a Config to a YAML file. Durations are written
// in Go duration syntax so the loader parses them back exactly.
func writeConfigFile(path string, cfg *config.Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`core:
  home_dir: %s
  timeout: %s
  debug: %t

graph:
  uri: %s
  username: %s
  # Set the password here or export it and use ${STIXTONEO_GRAPH_PASSWORD}
  password: "%s"
  database: %s
  max_connections: %d
  connection_timeout: %s

history:
  path: %s
  timeout: %s
  wal_mode: %t
  auto_vacuum: %t

logging:
  level: %s
  format: %s
  output: %s

tracing:
  enabled: %t
  provider: %s
  endpoint: "%s"
  service_name: stixtoneo
  sample_rate: %g
`,
		cfg.Core.HomeDir,
		cfg.Core.Timeout,
		cfg.Core.Debug,
		cfg.Graph.URI,
		cfg.Graph.Username,
		cfg.Graph.Password,
		cfg.Graph.Database,
		cfg.Graph.MaxConnections,
		cfg.Graph.ConnectionTimeout,
		cfg.History.Path,
		cfg.History.Timeout,
		cfg.History.WALMode,
		cfg.History.AutoVacuum,
		cfg.Logging.Level,
		cfg.Logging.Format,
		cfg.Logging.Output,
		cfg.Tracing.Enabled,
		cfg.Tracing.Provider,
		cfg.Tracing.Endpoint,
		cfg.Tracing.SampleRate,
	)

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
