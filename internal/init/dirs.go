package init

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirectoryConfig holds configuration for directory creation
type DirectoryConfig struct {
	HomeDir    string
	Dirs       []string
	Permission os.FileMode
}

// DefaultDirectories returns the standard directory structure created
// during initialization.
//
// The directory structure includes:
//   - taxonomy: custom taxonomy overlay files merged on top of the
//     embedded definitions
//   - logs: application log files when file output is configured
func DefaultDirectories(homeDir string) DirectoryConfig {
	return DirectoryConfig{
		HomeDir: homeDir,
		Dirs: []string{
			"taxonomy",
			"logs",
		},
		Permission: 0755,
	}
}

// CreateDirectories creates all directories specified in the DirectoryConfig.
// Existing directories are left untouched, so the function is idempotent.
func CreateDirectories(cfg DirectoryConfig) error {
	for _, dir := range cfg.Dirs {
		fullPath := filepath.Join(cfg.HomeDir, dir)

		if err := os.MkdirAll(fullPath, cfg.Permission); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", fullPath, err)
		}
	}

	return nil
}

// ValidateDirectories checks that all required directories exist and have
// the expected permissions. Returns the list of missing directories and
// directories with unexpected permission bits.
func ValidateDirectories(cfg DirectoryConfig) (missing []string, badPerms []string, err error) {
	for _, dir := range cfg.Dirs {
		fullPath := filepath.Join(cfg.HomeDir, dir)

		info, statErr := os.Stat(fullPath)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				missing = append(missing, fullPath)
				continue
			}
			return nil, nil, fmt.Errorf("failed to stat directory %s: %w", fullPath, statErr)
		}

		if !info.IsDir() {
			return nil, nil, fmt.Errorf("%s exists but is not a directory", fullPath)
		}

		actualPerms := info.Mode().Perm()
		if actualPerms != cfg.Permission {
			badPerms = append(badPerms, fmt.Sprintf("%s (expected %o, got %o)", fullPath, cfg.Permission, actualPerms))
		}
	}

	return missing, badPerms, nil
}
