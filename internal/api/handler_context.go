package api

import (
	"net/http"

	"client-portal/internal/middleware"
)

// contextResponse is the resolved tenant context for the effective principal.
// Linked is false when the account holds zero active grants; the client
// renders an unlinked-account state rather than treating it as an error.
type contextResponse struct {
	Linked        bool             `json:"linked"`
	Tenant        *tenantJSON      `json:"tenant,omitempty"`
	Permissions   *permissionsJSON `json:"permissions,omitempty"`
	Principal     principalRef     `json:"principal"`
	Impersonating bool             `json:"impersonating"`
	RealPrincipal *principalRef    `json:"real_principal,omitempty"`
}

type principalRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// GetContext resolves and returns the caller's active tenant context.
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	caller, ok := principalFrom(w, r)
	if !ok {
		return
	}

	hint := middleware.ActiveTenantFromCookie(r, h.cookies)
	tc, err := h.resolver.ResolveContext(r.Context(), caller.EffectiveID(), hint)
	if err != nil {
		h.logger.Error("resolve context failed", "principal", caller.EffectiveID(), "error", err)
		writeError(w, err)
		return
	}

	effective := caller.Effective()
	resp := contextResponse{
		Principal: principalRef{
			ID:    effective.ExternalID,
			Email: effective.Email,
			Name:  effective.Name,
			Role:  string(effective.Role),
		},
		Impersonating: caller.IsImpersonating(),
	}
	if caller.IsImpersonating() {
		resp.RealPrincipal = &principalRef{
			ID:    caller.ExternalID,
			Email: caller.Email,
			Name:  caller.Name,
			Role:  string(caller.Role),
		}
	}
	if tc != nil {
		resp.Linked = true
		tenant := tenantToAPI(tc.Tenant)
		perms := permissionsToAPI(tc.Permissions)
		resp.Tenant = &tenant
		resp.Permissions = &perms
	}

	writeJSON(w, http.StatusOK, resp)
}

// SwitchContext makes the requested tenant the caller's active tenant. On
// success the signed hint cookie is refreshed and the newly-resolved context
// is returned; on denial nothing is mutated.
func (h *Handler) SwitchContext(w http.ResponseWriter, r *http.Request) {
	caller, ok := principalFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		TenantID string `json:"tenant_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	if err := h.resolver.SwitchActiveTenant(r.Context(), caller.EffectiveID(), body.TenantID); err != nil {
		writeError(w, err)
		return
	}

	middleware.SetActiveTenantCookie(w, h.cookies, body.TenantID, h.secureCookies)

	tc, err := h.resolver.ResolveContext(r.Context(), caller.EffectiveID(), body.TenantID)
	if err != nil {
		writeError(w, err)
		return
	}

	effective := caller.Effective()
	resp := contextResponse{
		Principal: principalRef{
			ID:    effective.ExternalID,
			Email: effective.Email,
			Name:  effective.Name,
			Role:  string(effective.Role),
		},
		Impersonating: caller.IsImpersonating(),
	}
	if tc != nil {
		resp.Linked = true
		tenant := tenantToAPI(tc.Tenant)
		perms := permissionsToAPI(tc.Permissions)
		resp.Tenant = &tenant
		resp.Permissions = &perms
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListMyTenants lists the tenants the effective principal can switch to.
func (h *Handler) ListMyTenants(w http.ResponseWriter, r *http.Request) {
	caller, ok := principalFrom(w, r)
	if !ok {
		return
	}

	accessible, err := h.access.ListAccessibleTenants(r.Context(), caller.EffectiveID())
	if err != nil {
		writeError(w, err)
		return
	}

	type entry struct {
		Tenant      tenantJSON      `json:"tenant"`
		Permissions permissionsJSON `json:"permissions"`
	}
	out := make([]entry, 0, len(accessible))
	for _, a := range accessible {
		out = append(out, entry{Tenant: tenantToAPI(a.Tenant), Permissions: permissionsToAPI(a.Permissions)})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tenants": out})
}
