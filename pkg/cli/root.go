// Package cli implements the portalctl admin command line: migrations,
// seeding, dev token minting, and one-shot probe sweeps. It operates on the
// portal database directly and is meant for operators, not end users.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var dbPath string

	rootCmd := &cobra.Command{
		Use:           "portalctl",
		Short:         "Client portal admin CLI",
		Long:          "Operator tooling for the client portal: migrations, seeding, dev tokens, and probe sweeps.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to the portal SQLite database (default $PORTAL_DB_PATH or portal.sqlite)")

	resolveDB := func() string {
		if dbPath != "" {
			return dbPath
		}
		if v := os.Getenv("PORTAL_DB_PATH"); v != "" {
			return v
		}
		return "portal.sqlite"
	}

	rootCmd.AddCommand(newMigrateCmd(resolveDB))
	rootCmd.AddCommand(newSeedCmd(resolveDB))
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newProbeCmd(resolveDB))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
