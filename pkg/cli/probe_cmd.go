package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	internaldb "client-portal/internal/db"
	"client-portal/internal/db/repository"
	"client-portal/internal/service/health"
)

func newProbeCmd(resolveDB func() string) *cobra.Command {
	var (
		timeout     time.Duration
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Run one uptime probe sweep over all monitored tenants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := internaldb.OpenSQLite(resolveDB(), "write", 0)
			if err != nil {
				return err
			}
			defer db.Close()

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			svc := health.NewService(
				repository.NewTenantRepo(db, db),
				repository.NewHealthRepo(db, db),
				health.NewHTTPProber(timeout),
				logger,
				concurrency,
			)

			if err := svc.RunAll(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "probe sweep complete")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "per-probe HTTP timeout")
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "max in-flight probes")
	return cmd
}
