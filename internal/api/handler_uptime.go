package api

import (
	"net/http"
	"time"

	"client-portal/internal/domain"
	"client-portal/internal/middleware"
)

// uptimeContext resolves the caller's tenant context and enforces the uptime
// permission flag. A false return means the response has been written.
func (h *Handler) uptimeContext(w http.ResponseWriter, r *http.Request) (*domain.TenantContext, bool) {
	caller, ok := principalFrom(w, r)
	if !ok {
		return nil, false
	}

	hint := middleware.ActiveTenantFromCookie(r, h.cookies)
	tc, err := h.resolver.ResolveContext(r.Context(), caller.EffectiveID(), hint)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if tc == nil {
		writeError(w, domain.ErrAccessDenied("no tenant is linked to this account"))
		return nil, false
	}
	if !tc.Permissions.Uptime {
		writeError(w, domain.ErrAccessDenied("uptime is not enabled for this grant"))
		return nil, false
	}
	return tc, true
}

// GetUptime returns the latest health check for the active tenant. A tenant
// that has never been probed yields status "unknown".
func (h *Handler) GetUptime(w http.ResponseWriter, r *http.Request) {
	tc, ok := h.uptimeContext(w, r)
	if !ok {
		return
	}

	check, err := h.health.Latest(r.Context(), tc.Tenant.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if check == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"tenant_id": tc.Tenant.ID,
			"status":    "unknown",
		})
		return
	}
	writeJSON(w, http.StatusOK, healthCheckToAPI(*check))
}

// GetUptimeHistory returns the active tenant's checks over a trailing
// window (default 24h, ?window=... accepts a Go duration).
func (h *Handler) GetUptimeHistory(w http.ResponseWriter, r *http.Request) {
	tc, ok := h.uptimeContext(w, r)
	if !ok {
		return
	}

	var window time.Duration
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			writeError(w, domain.ErrValidation("invalid window %q", v))
			return
		}
		window = d
	}

	checks, err := h.health.History(r.Context(), tc.Tenant.ID, window)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]healthCheckJSON, 0, len(checks))
	for _, c := range checks {
		out = append(out, healthCheckToAPI(c))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"checks": out})
}
