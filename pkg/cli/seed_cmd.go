package cli

import (
	"context"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	internaldb "client-portal/internal/db"
	"client-portal/internal/db/repository"
	"client-portal/internal/domain"
)

// seedFile is the YAML document the seed command consumes.
type seedFile struct {
	Principals []seedPrincipal `yaml:"principals"`
	Tenants    []seedTenant    `yaml:"tenants"`
	Grants     []seedGrant     `yaml:"grants"`
}

type seedPrincipal struct {
	ID    string `yaml:"id"`
	Email string `yaml:"email"`
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
}

type seedTenant struct {
	ID                string  `yaml:"id"`
	Name              string  `yaml:"name"`
	BillingCustomerID *string `yaml:"billing_customer_id"`
	AnalyticsSiteID   *string `yaml:"analytics_site_id"`
	UptimeMonitorID   *string `yaml:"uptime_monitor_id"`
}

type seedGrant struct {
	Tenant      string `yaml:"tenant"`
	Principal   string `yaml:"principal"`
	Permissions struct {
		Billing   bool `yaml:"billing"`
		Analytics bool `yaml:"analytics"`
		Uptime    bool `yaml:"uptime"`
	} `yaml:"permissions"`
}

func newSeedCmd(resolveDB func() string) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed principals, tenants, and grants from a YAML file",
		Long: `Seed loads a YAML document of principals, tenants, and access grants
into the portal database. Principals are upserted; tenants and grants that
already exist are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var doc seedFile
			if err := yaml.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			db, err := internaldb.OpenSQLite(resolveDB(), "write", 0)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := internaldb.RunMigrations(db); err != nil {
				return err
			}

			ctx := context.Background()
			principals := repository.NewPrincipalRepo(db, db)
			tenants := repository.NewTenantRepo(db, db)
			grants := repository.NewGrantRepo(db, db)

			for _, p := range doc.Principals {
				role := domain.Role(p.Role)
				if !role.Valid() {
					return fmt.Errorf("principal %s: invalid role %q", p.ID, p.Role)
				}
				if _, err := principals.Upsert(ctx, &domain.Principal{
					ExternalID: p.ID, Email: p.Email, Name: p.Name, Role: role,
				}); err != nil {
					return fmt.Errorf("upsert principal %s: %w", p.ID, err)
				}
			}

			for _, t := range doc.Tenants {
				id := t.ID
				if id == "" {
					id = domain.NewID()
				}
				_, err := tenants.Create(ctx, &domain.Tenant{
					ID:                id,
					Name:              t.Name,
					BillingCustomerID: t.BillingCustomerID,
					AnalyticsSiteID:   t.AnalyticsSiteID,
					UptimeMonitorID:   t.UptimeMonitorID,
				})
				if err != nil {
					if _, ok := err.(*domain.ConflictError); ok {
						continue
					}
					return fmt.Errorf("create tenant %s: %w", t.Name, err)
				}
			}

			for _, g := range doc.Grants {
				_, err := grants.Create(ctx, &domain.AccessGrant{
					ID:          domain.NewID(),
					TenantID:    g.Tenant,
					PrincipalID: g.Principal,
					Active:      true,
					Permissions: domain.PermissionBundle{
						Billing:   g.Permissions.Billing,
						Analytics: g.Permissions.Analytics,
						Uptime:    g.Permissions.Uptime,
					},
				})
				if err != nil {
					if _, ok := err.(*domain.ConflictError); ok {
						continue
					}
					return fmt.Errorf("create grant (%s, %s): %w", g.Tenant, g.Principal, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d principals, %d tenants, %d grants\n",
				len(doc.Principals), len(doc.Tenants), len(doc.Grants))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "seed file to load")
	return cmd
}
