package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/limengmingx/stixtoneolib/internal/types"
)

// RunStatus represents the lifecycle state of a recorded ingestion run.
type RunStatus string

const (
	// RunStatusRunning indicates the run is still in progress.
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted indicates the run finished successfully.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusFailed indicates the run aborted with a fatal error.
	RunStatusFailed RunStatus = "failed"
)

// IngestionRun is one row of the run ledger.
type IngestionRun struct {
	ID         types.ID       `db:"id" json:"id"`
	Mode       string         `db:"mode" json:"mode"`
	InputPath  string         `db:"input_path" json:"input_path"`
	Status     RunStatus      `db:"status" json:"status"`
	NodeCounts map[string]int `db:"node_counts" json:"node_counts,omitempty"`
	TotalNodes int            `db:"total_nodes" json:"total_nodes"`
	TotalEdges int            `db:"total_edges" json:"total_edges"`
	Skipped    int            `db:"skipped" json:"skipped"`
	Entries    int            `db:"entries" json:"entries"`
	DurationMS int64          `db:"duration_ms" json:"duration_ms"`
	Error      string         `db:"error" json:"error,omitempty"`
	StartedAt  time.Time      `db:"started_at" json:"started_at"`
	FinishedAt *time.Time     `db:"finished_at" json:"finished_at,omitempty"`
}

// RunOutcome carries the final counters of a completed run.
type RunOutcome struct {
	NodeCounts map[string]int
	TotalNodes int
	TotalEdges int
	Skipped    int
	Entries    int
	Duration   time.Duration
}

// IngestionDAO provides database operations for the run ledger.
type IngestionDAO interface {
	// CreateRun records a new run in the running state.
	CreateRun(ctx context.Context, run *IngestionRun) error

	// CompleteRun marks a run completed and stores its counters.
	CompleteRun(ctx context.Context, id types.ID, outcome RunOutcome) error

	// FailRun marks a run failed and stores the fatal error.
	FailRun(ctx context.Context, id types.ID, runErr error) error

	// GetRun retrieves a single run by id.
	GetRun(ctx context.Context, id types.ID) (*IngestionRun, error)

	// ListRuns retrieves the most recent runs, newest first. A limit of
	// zero or less returns all runs.
	ListRuns(ctx context.Context, limit int) ([]IngestionRun, error)
}

type ingestionDAO struct {
	db *DB
}

// NewIngestionDAO creates an IngestionDAO backed by the given database.
func NewIngestionDAO(db *DB) IngestionDAO {
	return &ingestionDAO{db: db}
}

// CreateRun records a new run in the running state.
func (d *ingestionDAO) CreateRun(ctx context.Context, run *IngestionRun) error {
	if run.ID.IsZero() {
		run.ID = types.NewID()
	}
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO ingestion_runs (id, mode, input_path, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := d.db.ExecContext(ctx, query,
		run.ID.String(),
		run.Mode,
		run.InputPath,
		run.Status,
		run.StartedAt,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to create ingestion run", err)
	}

	return nil
}

// CompleteRun marks a run completed and stores its counters.
func (d *ingestionDAO) CompleteRun(ctx context.Context, id types.ID, outcome RunOutcome) error {
	countsJSON, err := json.Marshal(outcome.NodeCounts)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to encode node counts", err)
	}

	query := `
		UPDATE ingestion_runs
		SET status = ?, node_counts = ?, total_nodes = ?, total_edges = ?,
		    skipped = ?, entries = ?, duration_ms = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := d.db.ExecContext(ctx, query,
		RunStatusCompleted,
		string(countsJSON),
		outcome.TotalNodes,
		outcome.TotalEdges,
		outcome.Skipped,
		outcome.Entries,
		outcome.Duration.Milliseconds(),
		id.String(),
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to complete ingestion run", err)
	}

	return requireRowAffected(result, id)
}

// FailRun marks a run failed and stores the fatal error.
func (d *ingestionDAO) FailRun(ctx context.Context, id types.ID, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}

	query := `
		UPDATE ingestion_runs
		SET status = ?, error = ?, finished_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := d.db.ExecContext(ctx, query, RunStatusFailed, message, id.String())
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to mark ingestion run failed", err)
	}

	return requireRowAffected(result, id)
}

// GetRun retrieves a single run by id.
func (d *ingestionDAO) GetRun(ctx context.Context, id types.ID) (*IngestionRun, error) {
	query := `
		SELECT id, mode, input_path, status, node_counts, total_nodes, total_edges,
		       skipped, entries, duration_ms, error, started_at, finished_at
		FROM ingestion_runs
		WHERE id = ?
	`

	run, err := scanRun(d.db.QueryRowContext(ctx, query, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.NewError(types.DB_QUERY_FAILED,
			fmt.Sprintf("ingestion run not found: %s", id))
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to get ingestion run", err)
	}

	return run, nil
}

// ListRuns retrieves the most recent runs, newest first.
func (d *ingestionDAO) ListRuns(ctx context.Context, limit int) ([]IngestionRun, error) {
	query := `
		SELECT id, mode, input_path, status, node_counts, total_nodes, total_edges,
		       skipped, entries, duration_ms, error, started_at, finished_at
		FROM ingestion_runs
		ORDER BY started_at DESC, id
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list ingestion runs", err)
	}
	defer rows.Close()

	var runs []IngestionRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan ingestion run", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating ingestion runs", err)
	}

	return runs, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*IngestionRun, error) {
	var run IngestionRun
	var idStr string
	var countsJSON, errorText sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(
		&idStr,
		&run.Mode,
		&run.InputPath,
		&run.Status,
		&countsJSON,
		&run.TotalNodes,
		&run.TotalEdges,
		&run.Skipped,
		&run.Entries,
		&run.DurationMS,
		&errorText,
		&run.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.ID, err = types.ParseID(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run ID: %w", err)
	}

	if countsJSON.Valid && countsJSON.String != "" {
		if err := json.Unmarshal([]byte(countsJSON.String), &run.NodeCounts); err != nil {
			return nil, fmt.Errorf("failed to decode node counts: %w", err)
		}
	}
	if errorText.Valid {
		run.Error = errorText.String
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}

	return &run, nil
}

func requireRowAffected(result sql.Result, id types.ID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to check affected rows", err)
	}
	if affected == 0 {
		return types.NewError(types.DB_QUERY_FAILED,
			fmt.Sprintf("ingestion run not found: %s", id))
	}
	return nil
}
