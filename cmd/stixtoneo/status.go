package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/limengmingx/stixtoneolib/cmd/stixtoneo/internal"
	"github.com/limengmingx/stixtoneolib/internal/config"
	"github.com/limengmingx/stixtoneolib/internal/database"
	initpkg "github.com/limengmingx/stixtoneolib/internal/init"
	"github.com/limengmingx/stixtoneolib/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display system health and status",
	Long: `Display overall system status including:
  - Configuration file state
  - Neo4j graph store connectivity
  - Run-ledger database health and run count
  - Taxonomy version and custom overlay state`,
	RunE: runStatus,
}

// SystemStatus represents the complete system status
type SystemStatus struct {
	OverallHealth types.HealthStatus `json:"overall_health"`
	Config        ConfigStatus       `json:"config"`
	Graph         GraphStatus        `json:"graph"`
	Ledger        LedgerStatus       `json:"ledger"`
	Taxonomy      TaxonomyStatus     `json:"taxonomy"`
	CheckedAt     time.Time          `json:"checked_at"`
}

// ConfigStatus describes the configuration file state
type ConfigStatus struct {
	Path    string `json:"path"`
	Present bool   `json:"present"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
}

// GraphStatus describes Neo4j connectivity
type GraphStatus struct {
	URI       string `json:"uri"`
	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
}

// LedgerStatus describes the run-ledger database
type LedgerStatus struct {
	Path    string `json:"path"`
	Present bool   `json:"present"`
	Healthy bool   `json:"healthy"`
	Runs    int    `json:"runs"`
	LastRun string `json:"last_run,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TaxonomyStatus describes the loaded taxonomy
type TaxonomyStatus struct {
	Version     string `json:"version"`
	ObjectTypes int    `json:"object_types"`
	Overlay     string `json:"overlay,omitempty"`
	Error       string `json:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	formatter := internal.NewFormatter(flags.GetOutputFormat(), cmd.OutOrStdout())

	status := collectSystemStatus(ctx, flags)

	if flags.GetOutputFormat() == internal.FormatJSON {
		return formatter.PrintJSON(status)
	}

	return printTextStatus(cmd, status)
}

// collectSystemStatus collects status from all subsystems
func collectSystemStatus(ctx context.Context, flags *GlobalFlags) SystemStatus {
	status := SystemStatus{
		CheckedAt: time.Now(),
	}

	cfg, configStatus := checkConfig(flags)
	status.Config = configStatus
	status.Graph = checkGraph(ctx, cfg)
	status.Ledger = checkLedger(ctx, cfg)
	status.Taxonomy = checkTaxonomy(flags)
	status.OverallHealth = determineOverallHealth(status)

	return status
}

// checkConfig loads the configuration, falling back to defaults when
// the file is absent so the remaining checks still have settings
func checkConfig(flags *GlobalFlags) (*config.Config, ConfigStatus) {
	configPath := configFilePath(flags)
	configStatus := ConfigStatus{Path: configPath}

	_, err := os.Stat(configPath)
	configStatus.Present = err == nil

	loader := config.NewConfigLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(configPath)
	if err != nil {
		configStatus.Error = err.Error()
		cfg = config.DefaultConfig()
		return cfg, configStatus
	}

	configStatus.Valid = true
	return cfg, configStatus
}

// checkGraph attempts a connection to the configured Neo4j instance
func checkGraph(ctx context.Context, cfg *config.Config) GraphStatus {
	graphStatus := GraphStatus{URI: cfg.Graph.URI}

	client, err := buildGraphClient(cfg)
	if err != nil {
		graphStatus.Error = err.Error()
		return graphStatus
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.Connect(connectCtx); err != nil {
		graphStatus.Error = err.Error()
		return graphStatus
	}
	defer client.Close(ctx)

	graphStatus.Connected = true
	return graphStatus
}

// checkLedger checks run-ledger health and summarizes recorded runs
func checkLedger(ctx context.Context, cfg *config.Config) LedgerStatus {
	ledgerStatus := LedgerStatus{Path: cfg.History.Path}

	if _, err := os.Stat(cfg.History.Path); err != nil {
		if !os.IsNotExist(err) {
			ledgerStatus.Error = err.Error()
		}
		return ledgerStatus
	}
	ledgerStatus.Present = true

	db, err := database.Open(cfg.History.Path)
	if err != nil {
		ledgerStatus.Error = err.Error()
		return ledgerStatus
	}
	defer db.Close()

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Health(healthCtx); err != nil {
		ledgerStatus.Error = err.Error()
		return ledgerStatus
	}
	ledgerStatus.Healthy = true

	dao := database.NewIngestionDAO(db)
	runs, err := dao.ListRuns(ctx, 0)
	if err != nil {
		ledgerStatus.Error = err.Error()
		return ledgerStatus
	}
	ledgerStatus.Runs = len(runs)
	if len(runs) > 0 {
		ledgerStatus.LastRun = runs[0].StartedAt.Local().Format(time.DateTime)
	}

	return ledgerStatus
}

// checkTaxonomy loads the taxonomy the way the ingest command would
func checkTaxonomy(flags *GlobalFlags) TaxonomyStatus {
	taxonomyStatus := TaxonomyStatus{}

	overlayPath := initpkg.CustomTaxonomyPath(resolveHomeDir(flags))
	taxonomyStatus.Overlay = overlayPath

	registry, err := initpkg.VerifyTaxonomy(overlayPath)
	if err != nil {
		taxonomyStatus.Error = err.Error()
		return taxonomyStatus
	}

	taxonomyStatus.Version = registry.Version()
	taxonomyStatus.ObjectTypes = len(registry.ObjectTypes())
	return taxonomyStatus
}

// determineOverallHealth folds component states into a single status.
// An unreachable graph or broken taxonomy makes ingestion impossible;
// config and ledger problems leave read paths working.
func determineOverallHealth(status SystemStatus) types.HealthStatus {
	if !status.Graph.Connected {
		return types.Unhealthy("graph store unreachable")
	}
	if status.Taxonomy.Error != "" {
		return types.Unhealthy("taxonomy does not load")
	}
	if status.Config.Error != "" {
		return types.Degraded("configuration does not load")
	}
	if status.Ledger.Present && !status.Ledger.Healthy {
		return types.Degraded("run ledger unhealthy")
	}
	return types.Healthy("all systems operational")
}

// printTextStatus renders the status in human-readable form
func printTextStatus(cmd *cobra.Command, status SystemStatus) error {
	cmd.Printf("Overall Status: %s\n", status.OverallHealth.State)
	if status.OverallHealth.Message != "" {
		cmd.Printf("  %s\n", status.OverallHealth.Message)
	}

	cmd.Println("\nConfig:")
	cmd.Printf("  Path: %s\n", status.Config.Path)
	if status.Config.Present {
		cmd.Printf("  Valid: %v\n", status.Config.Valid)
	} else {
		cmd.Println("  Not present (using defaults; run 'stixtoneo init' to create)")
	}
	if status.Config.Error != "" {
		cmd.Printf("  Error: %s\n", status.Config.Error)
	}

	cmd.Println("\nGraph:")
	cmd.Printf("  URI: %s\n", status.Graph.URI)
	if status.Graph.Connected {
		cmd.Println("  Connected: true")
	} else {
		cmd.Println("  Not connected")
	}
	if status.Graph.Error != "" {
		cmd.Printf("  Error: %s\n", status.Graph.Error)
	}

	cmd.Println("\nLedger:")
	cmd.Printf("  Path: %s\n", status.Ledger.Path)
	if status.Ledger.Present {
		cmd.Printf("  Healthy: %v\n", status.Ledger.Healthy)
		cmd.Printf("  Runs: %d\n", status.Ledger.Runs)
		if status.Ledger.LastRun != "" {
			cmd.Printf("  Last run: %s\n", status.Ledger.LastRun)
		}
	} else {
		cmd.Println("  Not present (created on first ingest)")
	}
	if status.Ledger.Error != "" {
		cmd.Printf("  Error: %s\n", status.Ledger.Error)
	}

	cmd.Println("\nTaxonomy:")
	if status.Taxonomy.Error != "" {
		cmd.Printf("  Error: %s\n", status.Taxonomy.Error)
	} else {
		cmd.Printf("  Version: %s\n", status.Taxonomy.Version)
		cmd.Printf("  Object types: %d\n", status.Taxonomy.ObjectTypes)
	}
	if status.Taxonomy.Overlay != "" {
		cmd.Printf("  Overlay: %s\n", status.Taxonomy.Overlay)
	}

	return nil
}
