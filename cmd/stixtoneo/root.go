package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/limengmingx/stixtoneolib/cmd/stixtoneo/internal"
	"github.com/limengmingx/stixtoneolib/internal/config"
	"github.com/limengmingx/stixtoneolib/internal/util"
	"github.com/limengmingx/stixtoneolib/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "stixtoneo",
	Short: "STIX 2.1 to Neo4j ingestion engine",
	Long: `stixtoneo ingests STIX 2.1 threat intelligence documents and
materializes them into a Neo4j property graph.

It accepts single bundles, NDJSON object streams, and zip archives of
either, resolving references between objects in a second pass so that
input order never matters. Every run is recorded in a local ledger.`,
	PersistentPreRunE: preRun,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// preRun validates global flags before any command runs
func preRun(cmd *cobra.Command, args []string) error {
	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	// Version and help never need a home directory or config
	if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "init" {
		return nil
	}

	configFile := flags.ConfigFile
	if configFile == "" {
		configFile = config.DefaultConfigPath(resolveHomeDir(flags))
	}

	// A missing config is not fatal; commands fall back to defaults
	if _, err := os.Stat(configFile); err != nil {
		if os.IsNotExist(err) && flags.IsVerbose() {
			cmd.PrintErrf("Config file not found at %s (run 'stixtoneo init' to create)\n", configFile)
		}
	}

	return nil
}

// resolveHomeDir picks the home directory from the flag, the
// environment, or the default, in that order. Tilde and environment
// variable references are expanded so that quoted values like
// "~/threat-intel" work the same as shell-expanded ones.
func resolveHomeDir(flags *GlobalFlags) string {
	candidate := flags.HomeDir
	if candidate == "" {
		candidate = os.Getenv("STIXTONEO_HOME")
	}
	if candidate == "" {
		return config.DefaultHomeDir()
	}

	expanded, err := util.ExpandPath(candidate)
	if err != nil {
		// Expansion only fails when the user home cannot be resolved;
		// the raw value still gives downstream errors a usable path
		return candidate
	}
	return expanded
}

// configFilePath returns the config file path for the current flags
func configFilePath(flags *GlobalFlags) string {
	if flags.ConfigFile != "" {
		return flags.ConfigFile
	}
	return config.DefaultConfigPath(resolveHomeDir(flags))
}

func init() {
	RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the stixtoneo version",
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := ParseGlobalFlags(cmd)
		if err != nil {
			return err
		}
		if flags.GetOutputFormat() == internal.FormatJSON {
			formatter := internal.NewFormatter(internal.FormatJSON, cmd.OutOrStdout())
			return formatter.PrintJSON(version.Info())
		}
		cmd.Println(version.String())
		return nil
	},
}
