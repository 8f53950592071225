package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"client-portal/internal/domain"
)

// ListTenants lists tenants for the staff console. include_archived=true
// widens the listing to archived tenants.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r)
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	tenants, total, err := h.tenants.List(r.Context(), includeArchived, page)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]tenantJSON, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, tenantToAPI(t))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tenants":         out,
		"total":           total,
		"next_page_token": domain.NextPageToken(page.Offset(), page.Limit(), total),
	})
}

// CreateTenant registers a new client organization.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}

	tenant, err := h.tenants.Create(r.Context(), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tenantToAPI(*tenant))
}

// GetTenant returns one tenant by id.
func (h *Handler) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := h.tenants.Get(r.Context(), chi.URLParam(r, "tenantID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenantToAPI(*tenant))
}

// RenameTenant updates the tenant display name.
func (h *Handler) RenameTenant(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}

	if err := h.tenants.Rename(r.Context(), chi.URLParam(r, "tenantID"), body.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTenantLinks replaces the tenant's external SaaS references. Absent
// fields clear the corresponding reference.
func (h *Handler) UpdateTenantLinks(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BillingCustomerID *string `json:"billing_customer_id"`
		AnalyticsSiteID   *string `json:"analytics_site_id"`
		UptimeMonitorID   *string `json:"uptime_monitor_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	links := domain.TenantLinks{
		BillingCustomerID: body.BillingCustomerID,
		AnalyticsSiteID:   body.AnalyticsSiteID,
		UptimeMonitorID:   body.UptimeMonitorID,
	}
	if err := h.tenants.UpdateLinks(r.Context(), chi.URLParam(r, "tenantID"), links); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ArchiveTenant soft-archives a tenant.
func (h *Handler) ArchiveTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.tenants.Archive(r.Context(), chi.URLParam(r, "tenantID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreTenant clears the archive flag.
func (h *Handler) RestoreTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.tenants.Restore(r.Context(), chi.URLParam(r, "tenantID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTenant hard-deletes a tenant and its grants.
func (h *Handler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := h.tenants.Delete(r.Context(), chi.URLParam(r, "tenantID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
