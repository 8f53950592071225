package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"

	"client-portal/internal/api"
	"client-portal/internal/app"
	"client-portal/internal/config"
	internaldb "client-portal/internal/db"
	"client-portal/internal/middleware"
	"client-portal/internal/ui"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	// Open the portal store with hardened connection settings.
	// writeDB: single-connection pool for serialized writes (WAL + txlock=immediate).
	// readDB:  4-connection pool for concurrent reads (WAL, no txlock).
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.DBPath, 4)
	if err != nil {
		return err
	}
	defer writeDB.Close()
	defer readDB.Close()

	logger.Info("running migrations", "db", cfg.DBPath)
	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	application := app.New(app.Deps{Cfg: cfg, WriteDB: writeDB, ReadDB: readDB, Logger: logger})

	// Token validation: OIDC when an identity provider is configured,
	// HS256 shared secret otherwise (dev only; production requires OIDC).
	validator, err := buildValidator(ctx, cfg)
	if err != nil {
		return err
	}

	cookies := middleware.NewSignedCookieCodec(cfg.CookieSecret)
	authenticator := middleware.NewAuthenticator(validator, application.Identity, cookies)

	apiHandler := api.NewHandler(
		application.Services.Resolver,
		application.Services.Access,
		application.Services.Tenant,
		application.Services.Principal,
		application.Services.Impersonation,
		application.Services.Audit,
		application.Services.Health,
		cookies,
		cfg.WebhookSecret,
		cfg.IsProduction(),
		logger.With("component", "api"),
	)

	uiHandler := ui.NewHandler(
		application.Services.Resolver,
		application.Services.Access,
		application.Services.Tenant,
		application.Services.Impersonation,
		application.Services.Health,
		cookies,
		cfg.IsProduction(),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Webhook endpoint is outside the auth group: deliveries are signed,
	// not bearer-authenticated.
	r.Post("/v1/webhooks/identity", apiHandler.IdentityWebhook)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authenticator.Middleware)
		apiHandler.Routes(r)
	})

	r.Route("/ui", func(r chi.Router) {
		ui.MountRoutes(r, uiHandler, authenticator.Middleware)
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui", http.StatusSeeOther)
	})

	if err := application.HealthScheduler.Start(cfg.ProbeSchedule); err != nil {
		return err
	}
	defer application.HealthScheduler.Stop()

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("portal listening", "addr", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// buildValidator picks the JWT validator for the configured identity setup.
func buildValidator(ctx context.Context, cfg *config.Config) (middleware.JWTValidator, error) {
	switch {
	case cfg.Auth.IssuerURL != "":
		return middleware.NewOIDCValidator(ctx, cfg.Auth.IssuerURL, cfg.Auth.Audience, cfg.Auth.AllowedIssuers)
	case cfg.Auth.JWKSURL != "":
		return middleware.NewOIDCValidatorFromJWKS(ctx, cfg.Auth.JWKSURL, cfg.Auth.IssuerURL, cfg.Auth.Audience, cfg.Auth.AllowedIssuers)
	case cfg.Auth.JWTSecret != "":
		return middleware.NewHS256Validator(cfg.Auth.JWTSecret)
	default:
		return middleware.NewHS256Validator("dev-secret-change-in-production")
	}
}
