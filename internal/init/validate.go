package init

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/limengmingx/stixtoneolib/internal/config"
	"github.com/limengmingx/stixtoneolib/internal/database"
)

// ValidationResult contains the results of setup validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents a validation error with context and remediation
type ValidationError struct {
	Component string // Which component failed (directories, config, taxonomy, ledger)
	Message   string // What went wrong
	Action    string // What the user should do to fix it
}

// ValidationWarning represents a non-fatal validation issue
type ValidationWarning struct {
	Component string
	Message   string
}

// ValidateSetup performs comprehensive validation of an installation.
// It checks:
//   - All required directories exist
//   - The configuration file exists and loads
//   - The custom taxonomy overlay, when present, parses and merges
//   - The run-ledger database exists and answers a health check
//
// Returns a ValidationResult indicating whether the setup is valid and
// detailing any errors or warnings found.
func ValidateSetup(ctx context.Context, homeDir string) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	if err := validateHomeDir(homeDir, result); err != nil {
		return nil, err
	}
	if !result.Valid {
		// Without a home directory nothing else can be checked
		return result, nil
	}

	validateDirectoryStructure(homeDir, result)
	validateConfigFile(homeDir, result)
	validateTaxonomyOverlay(homeDir, result)
	validateLedger(ctx, homeDir, result)

	result.Valid = len(result.Errors) == 0

	return result, nil
}

// validateHomeDir checks that the home directory exists and is a directory
func validateHomeDir(homeDir string, result *ValidationResult) error {
	info, err := os.Stat(homeDir)
	if err != nil {
		if os.IsNotExist(err) {
			result.Errors = append(result.Errors, ValidationError{
				Component: "home_directory",
				Message:   fmt.Sprintf("home directory does not exist: %s", homeDir),
				Action:    "run 'stixtoneo init' to create it",
			})
			result.Valid = false
			return nil
		}
		return fmt.Errorf("failed to stat home directory: %w", err)
	}

	if !info.IsDir() {
		result.Errors = append(result.Errors, ValidationError{
			Component: "home_directory",
			Message:   fmt.Sprintf("home path exists but is not a directory: %s", homeDir),
			Action:    fmt.Sprintf("remove the file and run 'stixtoneo init': rm %s", homeDir),
		})
		result.Valid = false
	}

	return nil
}

// validateDirectoryStructure checks that all required directories exist
func validateDirectoryStructure(homeDir string, result *ValidationResult) {
	cfg := DefaultDirectories(homeDir)

	missing, badPerms, err := ValidateDirectories(cfg)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Component: "directories",
			Message:   fmt.Sprintf("failed to validate directory structure: %v", err),
			Action:    "check filesystem permissions and run 'stixtoneo init'",
		})
		return
	}

	for _, dir := range missing {
		result.Errors = append(result.Errors, ValidationError{
			Component: "directories",
			Message:   fmt.Sprintf("required directory missing: %s", dir),
			Action:    "run 'stixtoneo init' to recreate the directory structure",
		})
	}

	// Unexpected permissions are a warning, not an error; the engine
	// still functions as long as the directories are readable.
	for _, dir := range badPerms {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Component: "directories",
			Message:   fmt.Sprintf("unexpected permissions on %s", dir),
		})
	}
}

// validateConfigFile checks that the configuration file exists and loads
func validateConfigFile(homeDir string, result *ValidationResult) {
	configPath := config.DefaultConfigPath(homeDir)

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			result.Errors = append(result.Errors, ValidationError{
				Component: "config",
				Message:   fmt.Sprintf("configuration file not found: %s", configPath),
				Action:    "run 'stixtoneo init' to create a default configuration",
			})
		} else {
			result.Errors = append(result.Errors, ValidationError{
				Component: "config",
				Message:   fmt.Sprintf("cannot access configuration file: %v", err),
				Action:    "check file permissions",
			})
		}
		return
	}

	loader := config.NewConfigLoader(config.NewValidator())
	if _, err := loader.Load(configPath); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Component: "config",
			Message:   fmt.Sprintf("configuration does not load: %v", err),
			Action:    "fix the reported fields or rerun 'stixtoneo init --force'",
		})
	}
}

// validateTaxonomyOverlay checks that the custom overlay, when present,
// still merges cleanly with the embedded taxonomy
func validateTaxonomyOverlay(homeDir string, result *ValidationResult) {
	overlayPath := CustomTaxonomyPath(homeDir)
	if overlayPath == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Component: "taxonomy",
			Message:   "no custom taxonomy overlay present; embedded definitions will be used",
		})
		return
	}

	if _, err := VerifyTaxonomy(overlayPath); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Component: "taxonomy",
			Message:   fmt.Sprintf("custom taxonomy overlay does not load: %v", err),
			Action:    fmt.Sprintf("fix or remove %s", overlayPath),
		})
	}
}

// validateLedger checks that the run-ledger database exists and responds
func validateLedger(ctx context.Context, homeDir string, result *ValidationResult) {
	ledgerPath := filepath.Join(homeDir, "stixtoneo.db")

	if _, err := os.Stat(ledgerPath); err != nil {
		if os.IsNotExist(err) {
			result.Errors = append(result.Errors, ValidationError{
				Component: "ledger",
				Message:   fmt.Sprintf("run-ledger database not found: %s", ledgerPath),
				Action:    "run 'stixtoneo init' to create it",
			})
		} else {
			result.Errors = append(result.Errors, ValidationError{
				Component: "ledger",
				Message:   fmt.Sprintf("cannot access run-ledger database: %v", err),
				Action:    "check file permissions",
			})
		}
		return
	}

	db, err := database.Open(ledgerPath)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Component: "ledger",
			Message:   fmt.Sprintf("run-ledger database does not open: %v", err),
			Action:    "run 'stixtoneo init --force' to recreate it",
		})
		return
	}
	defer db.Close()

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Health(healthCtx); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Component: "ledger",
			Message:   fmt.Sprintf("run-ledger health check failed: %v", err),
			Action:    "run 'stixtoneo init --force' to recreate it",
		})
	}
}
