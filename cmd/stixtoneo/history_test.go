package main

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/limengmingx/stixtoneolib/cmd/stixtoneo/internal"
	"github.com/limengmingx/stixtoneolib/internal/database"
)

// seedLedger initializes a home directory and records two finished runs
func seedLedger(t *testing.T, homeDir string) (completed, failed *database.IngestionRun) {
	t.Helper()

	_, _, err := executeCommand(t, "init", "--home", homeDir)
	require.NoError(t, err)

	db, err := database.Open(filepath.Join(homeDir, "stixtoneo.db"))
	require.NoError(t, err)
	defer db.Close()
	dao := database.NewIngestionDAO(db)

	ctx := context.Background()

	completed = &database.IngestionRun{Mode: "bundle", InputPath: "feeds/apt.json"}
	require.NoError(t, dao.CreateRun(ctx, completed))
	require.NoError(t, dao.CompleteRun(ctx, completed.ID, database.RunOutcome{
		NodeCounts: map[string]int{"indicator": 3, "malware": 1},
		TotalNodes: 4,
		TotalEdges: 2,
		Entries:    1,
		Duration:   1200 * time.Millisecond,
	}))

	failed = &database.IngestionRun{Mode: "stream", InputPath: "feeds/live.ndjson"}
	require.NoError(t, dao.CreateRun(ctx, failed))
	require.NoError(t, dao.FailRun(ctx, failed.ID, errors.New("storage handle lost")))

	return completed, failed
}

func TestHistoryCommand(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "home")
	completed, failed := seedLedger(t, homeDir)

	stdout, _, err := executeCommand(t, "history", "--home", homeDir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "ID")
	assert.Contains(t, stdout, completed.ID.String())
	assert.Contains(t, stdout, failed.ID.String())
	assert.Contains(t, stdout, "completed")
	assert.Contains(t, stdout, "failed")
	assert.Contains(t, stdout, "feeds/apt.json")
}

func TestHistoryCommand_JSON(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "home")
	completed, _ := seedLedger(t, homeDir)

	stdout, _, err := executeCommand(t, "history", "--home", homeDir, "-o", "json")
	require.NoError(t, err)

	var runs []database.IngestionRun
	require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
	require.Len(t, runs, 2)

	// Runs come back newest first
	found := false
	for _, run := range runs {
		if run.ID == completed.ID {
			found = true
			assert.Equal(t, database.RunStatusCompleted, run.Status)
			assert.Equal(t, 4, run.TotalNodes)
			assert.Equal(t, map[string]int{"indicator": 3, "malware": 1}, run.NodeCounts)
		}
	}
	assert.True(t, found)
}

func TestHistoryCommand_Limit(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "home")
	seedLedger(t, homeDir)

	stdout, _, err := executeCommand(t, "history", "--home", homeDir, "--limit", "1", "-o", "json")
	require.NoError(t, err)

	var runs []database.IngestionRun
	require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
	assert.Len(t, runs, 1)
}

func TestHistoryCommand_NoLedger(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "empty")

	_, _, err := executeCommand(t, "history", "--home", homeDir)
	require.Error(t, err)

	var cliErr *internal.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, internal.ExitLedgerError, cliErr.Code)
}

func TestHistoryShowCommand(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "home")
	completed, failed := seedLedger(t, homeDir)

	stdout, _, err := executeCommand(t, "history", "show", completed.ID.String(), "--home", homeDir)
	require.NoError(t, err)

	assert.Contains(t, stdout, completed.ID.String())
	assert.Contains(t, stdout, "feeds/apt.json")
	assert.Contains(t, stdout, "nodes.indicator")

	// Failed runs expose the recorded error
	stdout, _, err = executeCommand(t, "history", "show", failed.ID.String(), "--home", homeDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "storage handle lost")
}

func TestHistoryShowCommand_BadID(t *testing.T) {
	homeDir := filepath.Join(t.TempDir(), "home")
	seedLedger(t, homeDir)

	_, _, err := executeCommand(t, "history", "show", "not-an-id", "--home", homeDir)
	assert.Error(t, err)
}
