package init

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/limengmingx/stixtoneolib/internal/config"
)

func TestDefaultDirectories(t *testing.T) {
	homeDir := "/test/home"
	cfg := DefaultDirectories(homeDir)

	assert.Equal(t, homeDir, cfg.HomeDir)
	assert.Equal(t, os.FileMode(0755), cfg.Permission)
	assert.Equal(t, []string{"taxonomy", "logs"}, cfg.Dirs)
}

func TestCreateDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultDirectories(tmpDir)
	err := CreateDirectories(cfg)
	require.NoError(t, err)

	for _, dir := range cfg.Dirs {
		fullPath := filepath.Join(tmpDir, dir)
		info, err := os.Stat(fullPath)
		require.NoError(t, err, "directory should exist: %s", fullPath)
		assert.True(t, info.IsDir())
	}
}

func TestCreateDirectories_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultDirectories(tmpDir)

	require.NoError(t, CreateDirectories(cfg))
	require.NoError(t, CreateDirectories(cfg))
}

func TestSeedCustomTaxonomy(t *testing.T) {
	tmpDir := t.TempDir()
	taxDir := filepath.Join(tmpDir, "taxonomy")

	created, err := SeedCustomTaxonomy(taxDir, false)
	require.NoError(t, err)
	assert.True(t, created)

	stubPath := filepath.Join(taxDir, "custom.yaml")
	data, err := os.ReadFile(stubPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "includes: []")

	// The stub must itself be a loadable overlay
	_, err = VerifyTaxonomy(stubPath)
	require.NoError(t, err)
}

func TestSeedCustomTaxonomy_PreservesExisting(t *testing.T) {
	tmpDir := t.TempDir()
	taxDir := filepath.Join(tmpDir, "taxonomy")
	require.NoError(t, os.MkdirAll(taxDir, 0755))

	stubPath := filepath.Join(taxDir, "custom.yaml")
	custom := []byte("version: \"2\"\nincludes: []\n")
	require.NoError(t, os.WriteFile(stubPath, custom, 0644))

	created, err := SeedCustomTaxonomy(taxDir, false)
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(stubPath)
	require.NoError(t, err)
	assert.Equal(t, custom, data, "existing overlay should be preserved")

	// Force overwrites the user's file
	created, err = SeedCustomTaxonomy(taxDir, true)
	require.NoError(t, err)
	assert.True(t, created)

	data, err = os.ReadFile(stubPath)
	require.NoError(t, err)
	assert.NotEqual(t, custom, data)
}

func TestVerifyTaxonomy_Embedded(t *testing.T) {
	registry, err := VerifyTaxonomy("")
	require.NoError(t, err)
	assert.NotEmpty(t, registry.Version())
	assert.NotEmpty(t, registry.ObjectTypes())
}

func TestVerifyTaxonomy_BrokenOverlay(t *testing.T) {
	tmpDir := t.TempDir()
	overlayPath := filepath.Join(tmpDir, "custom.yaml")
	require.NoError(t, os.WriteFile(overlayPath, []byte("version: [broken"), 0644))

	_, err := VerifyTaxonomy(overlayPath)
	assert.Error(t, err)
}

func TestInitialize_FreshHome(t *testing.T) {
	tmpDir := t.TempDir()
	homeDir := filepath.Join(tmpDir, "home")

	initializer := NewDefaultInitializer()
	result, err := initializer.Initialize(context.Background(), InitOptions{HomeDir: homeDir})
	require.NoError(t, err)

	assert.Equal(t, homeDir, result.HomeDir)
	assert.Len(t, result.DirsCreated, 2)
	assert.True(t, result.ConfigCreated)
	assert.True(t, result.LedgerCreated)
	assert.True(t, result.TaxonomySeeded)
	assert.Empty(t, result.Errors)

	// Every artifact exists on disk
	assert.FileExists(t, config.DefaultConfigPath(homeDir))
	assert.FileExists(t, filepath.Join(homeDir, "stixtoneo.db"))
	assert.FileExists(t, filepath.Join(homeDir, "taxonomy", "custom.yaml"))
	assert.DirExists(t, filepath.Join(homeDir, "logs"))
}

func TestInitialize_Idempotent(t *testing.T) {
	tmpDir := t.TempDir()
	homeDir := filepath.Join(tmpDir, "home")

	initializer := NewDefaultInitializer()
	_, err := initializer.Initialize(context.Background(), InitOptions{HomeDir: homeDir})
	require.NoError(t, err)

	// Second run creates nothing new
	result, err := initializer.Initialize(context.Background(), InitOptions{HomeDir: homeDir})
	require.NoError(t, err)

	assert.Empty(t, result.DirsCreated)
	assert.False(t, result.ConfigCreated)
	assert.False(t, result.LedgerCreated)
	assert.False(t, result.TaxonomySeeded)
	assert.Empty(t, result.Errors)
}

func TestInitialize_Force(t *testing.T) {
	tmpDir := t.TempDir()
	homeDir := filepath.Join(tmpDir, "home")

	initializer := NewDefaultInitializer()
	_, err := initializer.Initialize(context.Background(), InitOptions{HomeDir: homeDir})
	require.NoError(t, err)

	// Mangle the config so a forced rerun has something to replace
	configPath := config.DefaultConfigPath(homeDir)
	require.NoError(t, os.WriteFile(configPath, []byte("mangled"), 0644))

	result, err := initializer.Initialize(context.Background(), InitOptions{HomeDir: homeDir, Force: true})
	require.NoError(t, err)

	assert.True(t, result.ConfigCreated)
	assert.True(t, result.LedgerCreated, "force drops and recreates the ledger")
	assert.NotEmpty(t, result.Warnings)
	assert.Empty(t, result.Errors)

	// Replaced config loads again
	loader := config.NewConfigLoader(config.NewValidator())
	_, err = loader.Load(configPath)
	require.NoError(t, err)
}

func TestWriteConfigFile_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	cfg := config.DefaultConfig()
	cfg.Core.HomeDir = tmpDir
	cfg.Graph.Password = "s3cret"
	require.NoError(t, writeConfigFile(configPath, cfg))

	loader := config.NewConfigLoader(config.NewValidator())
	loaded, err := loader.Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, tmpDir, loaded.Core.HomeDir)
	assert.Equal(t, cfg.Core.Timeout, loaded.Core.Timeout)
	assert.Equal(t, cfg.Graph.URI, loaded.Graph.URI)
	assert.Equal(t, "s3cret", loaded.Graph.Password)
	assert.Equal(t, cfg.Graph.MaxConnections, loaded.Graph.MaxConnections)
	assert.Equal(t, cfg.History.WALMode, loaded.History.WALMode)
	assert.Equal(t, cfg.Logging.Level, loaded.Logging.Level)
	assert.Equal(t, cfg.Tracing.Enabled, loaded.Tracing.Enabled)
}

func TestValidateSetup_MissingHome(t *testing.T) {
	tmpDir := t.TempDir()

	result, err := ValidateSetup(context.Background(), filepath.Join(tmpDir, "absent"))
	require.NoError(t, err)

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "home_directory", result.Errors[0].Component)
}

func TestValidateSetup_AfterInitialize(t *testing.T) {
	tmpDir := t.TempDir()
	homeDir := filepath.Join(tmpDir, "home")

	initializer := NewDefaultInitializer()
	_, err := initializer.Initialize(context.Background(), InitOptions{HomeDir: homeDir})
	require.NoError(t, err)

	result, err := ValidateSetup(context.Background(), homeDir)
	require.NoError(t, err)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateSetup_BrokenOverlay(t *testing.T) {
	tmpDir := t.TempDir()
	homeDir := filepath.Join(tmpDir, "home")

	initializer := NewDefaultInitializer()
	_, err := initializer.Initialize(context.Background(), InitOptions{HomeDir: homeDir})
	require.NoError(t, err)

	overlayPath := filepath.Join(homeDir, "taxonomy", "custom.yaml")
	require.NoError(t, os.WriteFile(overlayPath, []byte("includes: {bad"), 0644))

	result, err := ValidateSetup(context.Background(), homeDir)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	found := false
	for _, verr := range result.Errors {
		if verr.Component == "taxonomy" {
			found = true
		}
	}
	assert.True(t, found, "overlay corruption should be reported against the taxonomy component")
}

func TestValidateSetup_MissingLedger(t *testing.T) {
	tmpDir := t.TempDir()
	homeDir := filepath.Join(tmpDir, "home")

	initializer := NewDefaultInitializer()
	_, err := initializer.Initialize(context.Background(), InitOptions{HomeDir: homeDir})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(homeDir, "stixtoneo.db")))

	result, err := ValidateSetup(context.Background(), homeDir)
	require.NoError(t, err)

	assert.False(t, result.Valid)
	found := false
	for _, verr := range result.Errors {
		if verr.Component == "ledger" {
			found = true
		}
	}
	assert.True(t, found)
}
