package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands a path by handling:
// - Tilde (~) expansion to user home directory
// - Environment variable expansion ($VAR or ${VAR})
// - Cleaning the final path
//
// Examples:
//   - "~/feeds" -> "/home/user/feeds"
//   - "$HOME/feeds" -> "/home/user/feeds"
//   - "${HOME}/feeds" -> "/home/user/feeds"
//   - "~/.stixtoneo/config.yaml" -> "/home/user/.stixtoneo/config.yaml"
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	// Handle tilde expansion
	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		if path == "~" {
			return homeDir, nil
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Expand environment variables
	path = os.ExpandEnv(path)

	// Clean the path
	path = filepath.Clean(path)

	return path, nil
}

