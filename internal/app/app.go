// Package app provides application-level wiring and dependency injection
// for the portal server.
package app

import (
	"database/sql"
	"log/slog"

	"client-portal/internal/config"
	"client-portal/internal/db/repository"
	"client-portal/internal/identity"
	"client-portal/internal/service"
	"client-portal/internal/service/health"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// Services groups all service pointers the API handler and UI need.
type Services struct {
	Resolver      *service.ContextResolver
	Access        *service.AccessService
	Tenant        *service.TenantService
	Principal     *service.PrincipalService
	Impersonation *service.ImpersonationService
	Audit         *service.AuditService
	Health        *health.Service
}

// App holds the fully-wired application.
type App struct {
	Services Services

	// Identity is the cached provider the auth middleware resolves
	// principals through.
	Identity identity.Provider

	// HealthScheduler runs the periodic uptime probe sweep; main() starts
	// and stops it around the HTTP server lifecycle.
	HealthScheduler *health.Scheduler
}

// New wires all repositories and services from the provided deps.
func New(deps Deps) *App {
	cfg := deps.Cfg

	// Repositories. Each takes the pool pair: mutations go through the
	// single-connection write pool, queries through the read pool.
	principalRepo := repository.NewPrincipalRepo(deps.WriteDB, deps.ReadDB)
	tenantRepo := repository.NewTenantRepo(deps.WriteDB, deps.ReadDB)
	grantRepo := repository.NewGrantRepo(deps.WriteDB, deps.ReadDB)
	prefRepo := repository.NewPreferenceRepo(deps.WriteDB, deps.ReadDB)
	auditRepo := repository.NewAuditRepo(deps.WriteDB, deps.ReadDB)
	healthRepo := repository.NewHealthRepo(deps.WriteDB, deps.ReadDB)

	// Identity provider: local store behind a TTL cache, invalidated by
	// webhook updates.
	storeProvider := identity.NewStoreProvider(principalRepo)
	cachedProvider := identity.NewCachingProvider(storeProvider, cfg.IdentityCacheTTL)

	resolver := service.NewContextResolver(grantRepo, tenantRepo, prefRepo, auditRepo,
		deps.Logger.With("component", "resolver"))
	accessSvc := service.NewAccessService(grantRepo, tenantRepo, auditRepo)
	tenantSvc := service.NewTenantService(tenantRepo, auditRepo)
	principalSvc := service.NewPrincipalService(principalRepo, cachedProvider,
		deps.Logger.With("component", "principals"))
	impersonationSvc := service.NewImpersonationService(cachedProvider, auditRepo,
		deps.Logger.With("component", "impersonation"))
	auditSvc := service.NewAuditService(auditRepo)

	prober := health.NewHTTPProber(cfg.ProbeTimeout)
	healthSvc := health.NewService(tenantRepo, healthRepo, prober,
		deps.Logger.With("component", "health"), cfg.ProbeConcurrency)

	return &App{
		Services: Services{
			Resolver:      resolver,
			Access:        accessSvc,
			Tenant:        tenantSvc,
			Principal:     principalSvc,
			Impersonation: impersonationSvc,
			Audit:         auditSvc,
			Health:        healthSvc,
		},
		Identity:        cachedProvider,
		HealthScheduler: health.NewScheduler(healthSvc, deps.Logger.With("component", "health-scheduler")),
	}
}
