package cli

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	internaldb "client-portal/internal/db"
)

func newMigrateCmd(resolveDB func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := resolveDB()
			db, err := internaldb.OpenSQLite(path, "write", 0)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := internaldb.RunMigrations(db); err != nil {
				return fmt.Errorf("migrate %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied to %s\n", path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print portalctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "portalctl %s (%s)\n", version, commit)
		},
	}
}
