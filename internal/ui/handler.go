// Package ui renders the server-side portal dashboard: tenant switcher,
// permission-gated feature cards, and the staff impersonation controls.
package ui

import (
	"context"
	"net/http"
	"strconv"

	"client-portal/internal/domain"
	"client-portal/internal/middleware"
	"client-portal/internal/service"
	"client-portal/internal/service/health"

	gomponents "maragu.dev/gomponents"
)

type Handler struct {
	Resolver      *service.ContextResolver
	Access        *service.AccessService
	Tenant        *service.TenantService
	Impersonation *service.ImpersonationService
	Health        *health.Service
	Cookies       *middleware.SignedCookieCodec
	Production    bool
}

func NewHandler(
	resolver *service.ContextResolver,
	access *service.AccessService,
	tenantSvc *service.TenantService,
	impersonationSvc *service.ImpersonationService,
	healthSvc *health.Service,
	cookies *middleware.SignedCookieCodec,
	production bool,
) *Handler {
	return &Handler{
		Resolver:      resolver,
		Access:        access,
		Tenant:        tenantSvc,
		Impersonation: impersonationSvc,
		Health:        healthSvc,
		Cookies:       cookies,
		Production:    production,
	}
}

func pageFromRequest(r *http.Request, defaultPageSize int) domain.PageRequest {
	maxResults := defaultPageSize
	if maxResults <= 0 {
		maxResults = 25
	}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxResults = parsed
		}
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 200 {
		maxResults = 200
	}
	return domain.PageRequest{
		MaxResults: maxResults,
		PageToken:  r.URL.Query().Get("page_token"),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func principalFromContext(ctx context.Context) domain.ContextPrincipal {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return domain.ContextPrincipal{Name: "unknown", Role: domain.RoleClient}
	}
	return p
}
