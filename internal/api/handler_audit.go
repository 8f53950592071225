package api

import (
	"net/http"

	"client-portal/internal/domain"
)

// ListAudit returns audit entries, newest first.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r)

	entries, total, err := h.audit.List(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]auditEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryToAPI(e))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries":         out,
		"total":           total,
		"next_page_token": domain.NextPageToken(page.Offset(), page.Limit(), total),
	})
}
