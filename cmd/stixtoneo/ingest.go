package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/limengmingx/stixtoneolib/cmd/stixtoneo/internal"
	"github.com/limengmingx/stixtoneolib/internal/config"
	"github.com/limengmingx/stixtoneolib/internal/database"
	"github.com/limengmingx/stixtoneolib/internal/graph"
	"github.com/limengmingx/stixtoneolib/internal/ingest"
	initpkg "github.com/limengmingx/stixtoneolib/internal/init"
	"github.com/limengmingx/stixtoneolib/internal/observability"
	"github.com/limengmingx/stixtoneolib/internal/stix/taxonomy"
	"github.com/limengmingx/stixtoneolib/internal/types"
	"github.com/limengmingx/stixtoneolib/pkg/version"
)

var (
	ingestMode     string
	ingestTaxonomy string
	ingestStrict   bool
	ingestNoLedger bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <input>",
	Short: "Ingest STIX 2.1 documents into the property graph",
	Long: `Ingest a STIX 2.1 input into Neo4j.

The input shape is detected from the file extension:
  .json            a single bundle document
  .ndjson, .jsonl  a newline-delimited object stream
  .zip             an archive of bundles or streams

Use --mode to override detection. Objects are materialized as nodes in
a first pass and their references resolved into edges in a second, so
objects may reference others that appear later in the input.

Each run is recorded in the local run ledger unless --no-ledger is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestMode, "mode", "", "Input mode: bundle, bundle-archive, stream, stream-archive (default: detect from extension)")
	ingestCmd.Flags().StringVar(&ingestTaxonomy, "taxonomy", "", "Path to a custom taxonomy overlay (default: $STIXTONEO_HOME/taxonomy/custom.yaml when present)")
	ingestCmd.Flags().BoolVar(&ingestStrict, "strict", false, "Exit with a non-zero status when any object was skipped")
	ingestCmd.Flags().BoolVar(&ingestNoLedger, "no-ledger", false, "Do not record this run in the run ledger")
}

// ingestSummary is the JSON envelope for a completed run
type ingestSummary struct {
	RunID      string         `json:"run_id,omitempty"`
	Input      string         `json:"input"`
	Mode       string         `json:"mode"`
	NodeCounts map[string]int `json:"node_counts"`
	TotalNodes int            `json:"total_nodes"`
	TotalEdges int            `json:"total_edges"`
	Skipped    int            `json:"skipped"`
	Entries    int            `json:"entries"`
	DurationMS int64          `json:"duration_ms"`
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	inputPath := args[0]

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	formatter := internal.NewFormatter(flags.GetOutputFormat(), cmd.OutOrStdout())

	cfg, err := loadRuntimeConfig(flags)
	if err != nil {
		return err
	}

	// Resolve the input mode before touching any backend
	mode, err := resolveMode(inputPath)
	if err != nil {
		return err
	}

	runID := types.NewID()
	logger := buildLogger(cfg, runID.String())

	// Tracing is optional; a noop provider costs nothing
	if cfg.Tracing.Enabled {
		provider, err := observability.InitTracing(ctx, cfg.Tracing, version.Version)
		if err != nil {
			return internal.WrapError(internal.ExitConfigError, "failed to initialize tracing", err)
		}
		defer func() {
			_ = observability.ShutdownTracing(ctx, provider)
		}()
	}

	registry, err := loadTaxonomyRegistry(flags)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to load taxonomy", err)
	}

	client, err := buildGraphClient(cfg)
	if err != nil {
		return err
	}

	// The run ledger records every run, including failed ones
	var dao database.IngestionDAO
	if !ingestNoLedger {
		db, err := openLedger(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		dao = database.NewIngestionDAO(db)
	}

	run := &database.IngestionRun{
		ID:        runID,
		Mode:      string(mode),
		InputPath: inputPath,
	}
	if dao != nil {
		if err := dao.CreateRun(ctx, run); err != nil {
			return internal.WrapError(internal.ExitLedgerError, "failed to record run start", err)
		}
	}

	ingester := ingest.New(client, registry, logger)
	result, err := ingester.Ingest(ctx, inputPath, mode)
	if err != nil {
		if dao != nil {
			if ferr := dao.FailRun(ctx, run.ID, err); ferr != nil {
				logger.Error(ctx, "failed to record run failure", "error", ferr)
			}
		}
		return err
	}

	if dao != nil {
		outcome := database.RunOutcome{
			NodeCounts: result.NodeCounts,
			TotalNodes: result.TotalNodes,
			TotalEdges: result.TotalEdges,
			Skipped:    result.Skipped,
			Entries:    result.Entries,
			Duration:   result.Duration,
		}
		if err := dao.CompleteRun(ctx, run.ID, outcome); err != nil {
			// The graph is already written; losing the ledger row is
			// not worth failing the run over
			logger.Error(ctx, "failed to record run completion", "error", err)
		}
	}

	// Only advertise the run ID when the ledger can resolve it
	recordedRun := run
	if dao == nil {
		recordedRun = nil
	}
	if err := printIngestSummary(formatter, flags, recordedRun, inputPath, mode, result); err != nil {
		return err
	}

	if ingestStrict && result.Skipped > 0 {
		return internal.NewCLIError(internal.ExitPartial,
			fmt.Sprintf("completed with %d skipped objects", result.Skipped))
	}

	return nil
}

// resolveMode validates the --mode flag or detects the mode from the path
func resolveMode(inputPath string) (ingest.Mode, error) {
	if ingestMode == "" {
		return ingest.DetectMode(inputPath)
	}

	switch mode := ingest.Mode(ingestMode); mode {
	case ingest.ModeBundle, ingest.ModeBundleArchive, ingest.ModeStream, ingest.ModeStreamArchive:
		return mode, nil
	default:
		return "", internal.NewCLIError(internal.ExitInputError,
			fmt.Sprintf("unknown mode %q (use bundle, bundle-archive, stream, or stream-archive)", ingestMode))
	}
}

// loadRuntimeConfig loads the effective configuration for the current flags
func loadRuntimeConfig(flags *GlobalFlags) (*config.Config, error) {
	loader := config.NewConfigLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(configFilePath(flags))
	if err != nil {
		return nil, err
	}

	// Rebase default paths onto the effective home directory when --home
	// or STIXTONEO_HOME points somewhere other than the configured home.
	// A ledger path set explicitly in the config file is left alone.
	homeDir := resolveHomeDir(flags)
	if homeDir != cfg.Core.HomeDir {
		defaultLedger := filepath.Join(cfg.Core.HomeDir, "stixtoneo.db")
		if cfg.History.Path == defaultLedger || cfg.History.Path == "" {
			cfg.History.Path = filepath.Join(homeDir, "stixtoneo.db")
		}
		cfg.Core.HomeDir = homeDir
	}
	return cfg, nil
}

// buildLogger constructs the run logger from the logging configuration
func buildLogger(cfg *config.Config, runID string) *observability.TracedLogger {
	handler := observability.BuildHandler(cfg.Logging)
	return observability.NewTracedLogger(handler, runID, "cli")
}

// loadTaxonomyRegistry loads the taxonomy, preferring the --taxonomy
// flag, then the home overlay seeded by init, then the embedded set
func loadTaxonomyRegistry(flags *GlobalFlags) (taxonomy.TaxonomyRegistry, error) {
	customPath := ingestTaxonomy
	if customPath == "" {
		customPath = initpkg.CustomTaxonomyPath(resolveHomeDir(flags))
	}
	return initpkg.VerifyTaxonomy(customPath)
}

// buildGraphClient constructs the traced Neo4j client from configuration
func buildGraphClient(cfg *config.Config) (graph.GraphClient, error) {
	clientCfg := graph.DefaultConfig()
	clientCfg.URI = cfg.Graph.URI
	clientCfg.Username = cfg.Graph.Username
	clientCfg.Password = cfg.Graph.Password
	clientCfg.Database = cfg.Graph.Database
	clientCfg.MaxConnectionPoolSize = cfg.Graph.MaxConnections
	clientCfg.ConnectionTimeout = cfg.Graph.ConnectionTimeout

	client, err := graph.NewNeo4jClient(clientCfg)
	if err != nil {
		return nil, err
	}

	return graph.NewTracedGraphClient(client, otel.Tracer("stixtoneo.graph")), nil
}

// openLedger opens the run-ledger database, creating it on first use
func openLedger(cfg *config.Config) (*database.DB, error) {
	ledgerPath := cfg.History.Path
	if dir := filepath.Dir(ledgerPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, internal.WrapError(internal.ExitLedgerError, "failed to create ledger directory", err)
		}
	}

	db, err := database.Open(ledgerPath)
	if err != nil {
		return nil, err
	}
	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// printIngestSummary writes the run summary in the selected format
func printIngestSummary(formatter *internal.Formatter, flags *GlobalFlags, run *database.IngestionRun, inputPath string, mode ingest.Mode, result *ingest.Result) error {
	if flags.GetOutputFormat() == internal.FormatJSON {
		summary := ingestSummary{
			Input:      inputPath,
			Mode:       string(mode),
			NodeCounts: result.NodeCounts,
			TotalNodes: result.TotalNodes,
			TotalEdges: result.TotalEdges,
			Skipped:    result.Skipped,
			Entries:    result.Entries,
			DurationMS: result.Duration.Milliseconds(),
		}
		if run != nil {
			summary.RunID = run.ID.String()
		}
		return formatter.PrintJSON(summary)
	}

	if err := formatter.PrintSuccess(fmt.Sprintf("ingested %s", inputPath)); err != nil {
		return err
	}

	if flags.IsQuiet() {
		return nil
	}

	// Per-type node counts, sorted for stable output
	typeTags := make([]string, 0, len(result.NodeCounts))
	for tag := range result.NodeCounts {
		typeTags = append(typeTags, tag)
	}
	sort.Strings(typeTags)

	rows := make([][]string, 0, len(typeTags))
	for _, tag := range typeTags {
		rows = append(rows, []string{tag, fmt.Sprintf("%d", result.NodeCounts[tag])})
	}
	if len(rows) > 0 {
		if err := formatter.PrintTable([]string{"type", "nodes"}, rows); err != nil {
			return err
		}
	}

	totals := [][]string{
		{"nodes", fmt.Sprintf("%d", result.TotalNodes)},
		{"edges", fmt.Sprintf("%d", result.TotalEdges)},
		{"entries", fmt.Sprintf("%d", result.Entries)},
		{"skipped", fmt.Sprintf("%d", result.Skipped)},
		{"duration", result.Duration.Round(time.Millisecond).String()},
	}
	if run != nil {
		totals = append(totals, []string{"run", run.ID.String()})
	}
	return formatter.PrintTable([]string{"total", "value"}, totals)
}
