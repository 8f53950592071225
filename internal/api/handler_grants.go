package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ListGrants lists all grants on a tenant, active or not.
func (h *Handler) ListGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := h.access.ListForTenant(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]grantJSON, 0, len(grants))
	for _, g := range grants {
		out = append(out, grantToAPI(g))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"grants": out})
}

// CreateGrant grants a principal access to the tenant.
func (h *Handler) CreateGrant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PrincipalID string          `json:"principal_id"`
		Permissions permissionsJSON `json:"permissions"`
	}
	if !decode(w, r, &body) {
		return
	}

	grant, err := h.access.Grant(r.Context(), chi.URLParam(r, "tenantID"), body.PrincipalID, body.Permissions.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, grantToAPI(*grant))
}

// RevokeGrant removes the grant for (tenant, principal).
func (h *Handler) RevokeGrant(w http.ResponseWriter, r *http.Request) {
	err := h.access.Revoke(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "principalID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetGrantActive toggles a grant's activation flag.
func (h *Handler) SetGrantActive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Active bool `json:"active"`
	}
	if !decode(w, r, &body) {
		return
	}

	err := h.access.SetActive(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "principalID"), body.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateGrantPermissions replaces a grant's permission bundle.
func (h *Handler) UpdateGrantPermissions(w http.ResponseWriter, r *http.Request) {
	var body permissionsJSON
	if !decode(w, r, &body) {
		return
	}

	err := h.access.UpdatePermissions(r.Context(), chi.URLParam(r, "tenantID"), chi.URLParam(r, "principalID"), body.toDomain())
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
