package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCommand(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "home")

	stdout, _, err := executeCommand(t, "init", "--home", homeDir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "initialized successfully")
	assert.FileExists(t, filepath.Join(homeDir, "config.yaml"))
	assert.FileExists(t, filepath.Join(homeDir, "stixtoneo.db"))
	assert.FileExists(t, filepath.Join(homeDir, "taxonomy", "custom.yaml"))
	assert.DirExists(t, filepath.Join(homeDir, "logs"))
}

func TestInitCommand_SecondRunKeepsConfig(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "home")

	_, _, err := executeCommand(t, "init", "--home", homeDir)
	require.NoError(t, err)

	// Leave a marker in the config and rerun without --force
	configPath := filepath.Join(homeDir, "config.yaml")
	original, err := os.ReadFile(configPath)
	require.NoError(t, err)
	marked := append([]byte("# marker\n"), original...)
	require.NoError(t, os.WriteFile(configPath, marked, 0644))

	stdout, _, err := executeCommand(t, "init", "--home", homeDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Config created: false")

	after, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, marked, after, "rerun must not rewrite the config")
}

func TestInitCommand_ForceRecreates(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "home")

	_, _, err := executeCommand(t, "init", "--home", homeDir)
	require.NoError(t, err)

	configPath := filepath.Join(homeDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("# marker only\n"), 0644))

	stdout, _, err := executeCommand(t, "init", "--home", homeDir, "--force")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Config created: true")
	assert.Contains(t, stdout, "Warnings:")

	after, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.NotContains(t, string(after), "# marker only")
}
