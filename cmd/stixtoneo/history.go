package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/limengmingx/stixtoneolib/cmd/stixtoneo/internal"
	"github.com/limengmingx/stixtoneolib/internal/database"
	"github.com/limengmingx/stixtoneolib/internal/types"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded ingestion runs",
	Long: `List ingestion runs from the local run ledger, newest first.

Use 'history show <id>' to inspect a single run in detail.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single ingestion run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list (0 for all)")
	historyCmd.AddCommand(historyShowCmd)
}

// openHistoryDAO opens the run ledger for read access
func openHistoryDAO(flags *GlobalFlags) (database.IngestionDAO, *database.DB, error) {
	cfg, err := loadRuntimeConfig(flags)
	if err != nil {
		return nil, nil, err
	}

	if _, err := os.Stat(cfg.History.Path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, internal.NewCLIError(internal.ExitLedgerError,
				fmt.Sprintf("no run ledger at %s (run 'stixtoneo ingest' first)", cfg.History.Path))
		}
		return nil, nil, internal.WrapError(internal.ExitLedgerError, "cannot access run ledger", err)
	}

	db, err := database.Open(cfg.History.Path)
	if err != nil {
		return nil, nil, err
	}
	return database.NewIngestionDAO(db), db, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	formatter := internal.NewFormatter(flags.GetOutputFormat(), cmd.OutOrStdout())

	dao, db, err := openHistoryDAO(flags)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := dao.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}

	if flags.GetOutputFormat() == internal.FormatJSON {
		return formatter.PrintJSON(runs)
	}

	if len(runs) == 0 {
		return formatter.PrintSuccess("no runs recorded")
	}

	headers := []string{"id", "mode", "input", "status", "nodes", "edges", "skipped", "started", "duration"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID.String(),
			run.Mode,
			run.InputPath,
			string(run.Status),
			fmt.Sprintf("%d", run.TotalNodes),
			fmt.Sprintf("%d", run.TotalEdges),
			fmt.Sprintf("%d", run.Skipped),
			run.StartedAt.Local().Format(time.DateTime),
			(time.Duration(run.DurationMS) * time.Millisecond).String(),
		})
	}

	return formatter.PrintTable(headers, rows)
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	formatter := internal.NewFormatter(flags.GetOutputFormat(), cmd.OutOrStdout())

	runID, err := types.ParseID(args[0])
	if err != nil {
		return internal.NewCLIError(internal.ExitError, fmt.Sprintf("invalid run id %q", args[0]))
	}

	dao, db, err := openHistoryDAO(flags)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := dao.GetRun(ctx, runID)
	if err != nil {
		return err
	}

	if flags.GetOutputFormat() == internal.FormatJSON {
		return formatter.PrintJSON(run)
	}

	rows := [][]string{
		{"id", run.ID.String()},
		{"mode", run.Mode},
		{"input", run.InputPath},
		{"status", string(run.Status)},
		{"nodes", fmt.Sprintf("%d", run.TotalNodes)},
		{"edges", fmt.Sprintf("%d", run.TotalEdges)},
		{"skipped", fmt.Sprintf("%d", run.Skipped)},
		{"entries", fmt.Sprintf("%d", run.Entries)},
		{"started", run.StartedAt.Local().Format(time.DateTime)},
		{"duration", (time.Duration(run.DurationMS) * time.Millisecond).String()},
	}
	if run.FinishedAt != nil {
		rows = append(rows, []string{"finished", run.FinishedAt.Local().Format(time.DateTime)})
	}
	if run.Error != "" {
		rows = append(rows, []string{"error", run.Error})
	}

	typeTags := make([]string, 0, len(run.NodeCounts))
	for tag := range run.NodeCounts {
		typeTags = append(typeTags, tag)
	}
	sort.Strings(typeTags)
	for _, tag := range typeTags {
		rows = append(rows, []string{"nodes." + tag, fmt.Sprintf("%d", run.NodeCounts[tag])})
	}

	return formatter.PrintTable([]string{"field", "value"}, rows)
}
