package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"strings"
)

//go:embed schema.sql
var initialSchema string

// Migrator handles run ledger schema migrations.
type Migrator interface {
	// Migrate applies all pending migrations.
	Migrate(ctx context.Context) error

	// CurrentVersion returns the current schema version.
	CurrentVersion(ctx context.Context) (int, error)

	// GetAppliedMigrations returns a list of all applied migrations.
	GetAppliedMigrations(ctx context.Context) ([]MigrationInfo, error)
}

// MigrationInfo contains information about an applied migration.
type MigrationInfo struct {
	Version   int
	Name      string
	AppliedAt string
}

type migration struct {
	version int
	name    string
	up      string
}

type migrator struct {
	db         *DB
	migrations []migration
}

// NewMigrator creates a migrator for the run ledger schema.
func NewMigrator(db *DB) Migrator {
	return &migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

func getMigrations() []migration {
	migrations := []migration{
		{
			version: 1,
			name:    "ingestion_runs",
			up:      initialSchema,
		},
		// Future migrations will be added here
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})

	return migrations
}

// Migrate applies all pending migrations.
func (m *migrator) Migrate(ctx context.Context) error {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, mig := range m.migrations {
		if mig.version <= currentVersion {
			continue
		}

		if err := m.applyMigration(ctx, mig); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.version, mig.name, err)
		}
	}

	return nil
}

// CurrentVersion returns the current schema version.
func (m *migrator) CurrentVersion(ctx context.Context) (int, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	var version int
	query := "SELECT COALESCE(MAX(version), 0) FROM migrations"
	if err := m.db.conn.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to query current version: %w", err)
	}

	return version, nil
}

// GetAppliedMigrations returns a list of all applied migrations.
func (m *migrator) GetAppliedMigrations(ctx context.Context) ([]MigrationInfo, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	query := "SELECT version, name, applied_at FROM migrations ORDER BY version"
	rows, err := m.db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var migrations []MigrationInfo
	for rows.Next() {
		var info MigrationInfo
		if err := rows.Scan(&info.Version, &info.Name, &info.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		migrations = append(migrations, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migrations: %w", err)
	}

	return migrations, nil
}

func (m *migrator) ensureMigrationsTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`

	if _, err := m.db.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	return nil
}

// applyMigration applies a single migration within a transaction.
func (m *migrator) applyMigration(ctx context.Context, mig migration) error {
	return m.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range splitSQL(mig.up) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
			}
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO migrations (version, name, applied_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
			mig.version, mig.name)
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}

		return nil
	})
}

// splitSQL splits a migration script into executable statements. Semicolons
// inside trigger BEGIN...END blocks do not terminate a statement, and pure
// comment lines are stripped so the driver never sees empty statements.
func splitSQL(script string) []string {
	var statements []string
	var current []string
	depth := 0

	flush := func() {
		stmt := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if stmt != "" {
			statements = append(statements, stmt)
		}
	}

	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
			trimmed = strings.TrimSpace(line)
		}

		for _, word := range strings.Fields(strings.ToUpper(trimmed)) {
			switch strings.TrimSuffix(word, ";") {
			case "BEGIN":
				depth++
			case "END":
				depth--
			}
		}

		current = append(current, line)
		if depth == 0 && strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}
	flush()

	return statements
}
