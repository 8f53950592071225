package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"client-portal/internal/domain"
	"client-portal/internal/identity"
)

// ListPrincipals lists principals for the admin user-management screens.
func (h *Handler) ListPrincipals(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r)

	principals, total, err := h.principals.List(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]principalJSON, 0, len(principals))
	for _, p := range principals {
		out = append(out, principalToAPI(p))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"principals":      out,
		"total":           total,
		"next_page_token": domain.NextPageToken(page.Offset(), page.Limit(), total),
	})
}

// GetPrincipal returns one principal by external id.
func (h *Handler) GetPrincipal(w http.ResponseWriter, r *http.Request) {
	principal, err := h.principals.Get(r.Context(), chi.URLParam(r, "principalID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, principalToAPI(*principal))
}

// IdentityWebhook ingests principal lifecycle events from the identity
// provider. The endpoint is unauthenticated but requires a valid HMAC
// signature; it is disabled entirely when no webhook secret is configured.
func (h *Handler) IdentityWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret == "" {
		writeError(w, domain.ErrNotFound("identity webhook is not configured"))
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, domain.ErrValidation("read webhook payload: %v", err))
		return
	}

	signature := r.Header.Get(identity.SignatureHeader)
	if !identity.VerifySignature([]byte(h.webhookSecret), payload, signature) {
		h.logger.Warn("identity webhook signature rejected", "remote", r.RemoteAddr)
		writeError(w, domain.ErrUnauthenticated("invalid webhook signature"))
		return
	}

	event, err := identity.ParseWebhookEvent(payload)
	if err != nil {
		writeError(w, domain.ErrValidation("parse webhook event: %v", err))
		return
	}

	if err := h.principals.ApplyWebhookEvent(r.Context(), event); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
