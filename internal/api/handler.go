// Package api provides HTTP handlers for the portal REST API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"client-portal/internal/domain"
	"client-portal/internal/middleware"
	"client-portal/internal/service"
	"client-portal/internal/service/health"
)

// Handler holds the services behind the /v1 API surface.
type Handler struct {
	resolver      *service.ContextResolver
	access        *service.AccessService
	tenants       *service.TenantService
	principals    *service.PrincipalService
	impersonation *service.ImpersonationService
	audit         *service.AuditService
	health        *health.Service

	cookies       *middleware.SignedCookieCodec
	webhookSecret string
	secureCookies bool
	logger        *slog.Logger
}

// NewHandler creates a new Handler with all required service dependencies.
// webhookSecret may be empty, which disables the identity webhook endpoint.
func NewHandler(
	resolver *service.ContextResolver,
	access *service.AccessService,
	tenants *service.TenantService,
	principals *service.PrincipalService,
	impersonation *service.ImpersonationService,
	audit *service.AuditService,
	healthSvc *health.Service,
	cookies *middleware.SignedCookieCodec,
	webhookSecret string,
	secureCookies bool,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		resolver:      resolver,
		access:        access,
		tenants:       tenants,
		principals:    principals,
		impersonation: impersonation,
		audit:         audit,
		health:        healthSvc,
		cookies:       cookies,
		webhookSecret: webhookSecret,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

// Routes mounts the authenticated API routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/context", h.GetContext)
	r.Post("/context/switch", h.SwitchContext)
	r.Get("/my/tenants", h.ListMyTenants)

	r.Route("/tenants", func(r chi.Router) {
		r.Get("/", h.ListTenants)
		r.Post("/", h.CreateTenant)
		r.Route("/{tenantID}", func(r chi.Router) {
			r.Get("/", h.GetTenant)
			r.Patch("/", h.RenameTenant)
			r.Delete("/", h.DeleteTenant)
			r.Put("/links", h.UpdateTenantLinks)
			r.Post("/archive", h.ArchiveTenant)
			r.Post("/restore", h.RestoreTenant)

			r.Get("/grants", h.ListGrants)
			r.Post("/grants", h.CreateGrant)
			r.Route("/grants/{principalID}", func(r chi.Router) {
				r.Delete("/", h.RevokeGrant)
				r.Put("/active", h.SetGrantActive)
				r.Put("/permissions", h.UpdateGrantPermissions)
			})
		})
	})

	r.Route("/impersonation", func(r chi.Router) {
		r.Get("/", h.GetImpersonation)
		r.Post("/", h.StartImpersonation)
		r.Delete("/", h.StopImpersonation)
	})

	r.Get("/principals", h.ListPrincipals)
	r.Get("/principals/{principalID}", h.GetPrincipal)

	r.Get("/audit", h.ListAudit)

	r.Get("/uptime", h.GetUptime)
	r.Get("/uptime/history", h.GetUptimeHistory)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error to its HTTP status and writes the standard
// error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := httpStatusFromDomainError(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		// Internal detail stays in the logs.
		message = "internal server error"
	}
	writeJSON(w, code, map[string]interface{}{
		"code":    code,
		"message": message,
	})
}

// decode parses the request body into v. A false return means the 400 has
// already been written.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return false
	}
	return true
}

// pageFromRequest extracts a PageRequest from max_results/page_token params.
func pageFromRequest(r *http.Request) domain.PageRequest {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if v := r.URL.Query().Get("max_results"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxResults = n
		}
	}
	return p
}

// principalFrom pulls the authenticated principal off the context or writes
// a 401. The middleware guarantees one on every /v1 route; this guards the
// handlers when exercised directly in tests.
func principalFrom(w http.ResponseWriter, r *http.Request) (domain.ContextPrincipal, bool) {
	p, ok := domain.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, domain.ErrUnauthenticated("authentication required"))
	}
	return p, ok
}
