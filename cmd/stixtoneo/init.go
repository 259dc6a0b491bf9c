package main

import (
	"github.com/spf13/cobra"

	initpkg "github.com/limengmingx/stixtoneolib/internal/init"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the stixtoneo home directory",
	Long: `Initialize the stixtoneo home directory by creating:
- The directory structure (taxonomy overlay, logs)
- A default configuration file
- The SQLite run ledger with schema
- A custom taxonomy overlay stub`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration and recreate the run ledger")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}
	homeDir := resolveHomeDir(flags)

	cmd.Printf("Initializing stixtoneo in %s...\n", homeDir)

	initializer := initpkg.NewDefaultInitializer()
	result, err := initializer.Initialize(ctx, initpkg.InitOptions{
		HomeDir: homeDir,
		Force:   initForce,
	})
	if err != nil {
		cmd.PrintErrln("Initialization failed:", err)
		return err
	}

	displayInitResult(cmd, result)

	return nil
}

func displayInitResult(cmd *cobra.Command, result *initpkg.InitResult) {
	cmd.Println("\nstixtoneo initialized successfully!")
	cmd.Printf("  Home directory: %s\n", result.HomeDir)
	cmd.Printf("  Directories created: %d\n", len(result.DirsCreated))
	cmd.Printf("  Config created: %v\n", result.ConfigCreated)
	cmd.Printf("  Run ledger created: %v\n", result.LedgerCreated)
	cmd.Printf("  Taxonomy overlay seeded: %v\n", result.TaxonomySeeded)

	if len(result.Warnings) > 0 {
		cmd.Println("\nWarnings:")
		for _, w := range result.Warnings {
			cmd.Printf("  - %s\n", w)
		}
	}

	if len(result.Errors) > 0 {
		cmd.Println("\nErrors:")
		for _, e := range result.Errors {
			cmd.Printf("  - %v\n", e)
		}
	}
}
