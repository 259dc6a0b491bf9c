package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

// resetCommandState clears flag variables between tests. Cobra re-parses
// argument vectors on every Execute but leaves unmentioned flags at their
// previous values, so shared state must be reset by hand.
func resetCommandState() {
	globalFlags.Verbose = false
	globalFlags.Quiet = false
	globalFlags.OutputFormat = "text"
	globalFlags.ConfigFile = ""
	globalFlags.HomeDir = ""

	initForce = false
	historyLimit = 20
	ingestMode = ""
	ingestTaxonomy = ""
	ingestStrict = false
	ingestNoLedger = false
}

// executeCommand runs the CLI with the given argument vector and returns
// captured stdout, stderr, and the command error
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetCommandState()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// writeTestConfig writes a minimal config file pointing the graph at a
// closed port so connection attempts fail fast and deterministically
func writeTestConfig(t *testing.T, homeDir string) string {
	t.Helper()
	require := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}

	require(os.MkdirAll(homeDir, 0755))
	configPath := filepath.Join(homeDir, "config.yaml")
	content := "graph:\n" +
		"  uri: bolt://127.0.0.1:9\n" +
		"  username: neo4j\n" +
		"  password: test\n" +
		"history:\n" +
		"  path: " + filepath.Join(homeDir, "stixtoneo.db") + "\n"
	require(os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}
