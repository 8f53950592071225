package api

import (
	"net/http"

	"client-portal/internal/middleware"
)

// GetImpersonation reports the caller's current impersonation session.
func (h *Handler) GetImpersonation(w http.ResponseWriter, r *http.Request) {
	caller, ok := principalFrom(w, r)
	if !ok {
		return
	}

	if caller.Impersonation == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active": true,
		"session": impersonationJSON{
			TargetID:  caller.Impersonation.TargetID,
			StartedBy: caller.Impersonation.StartedBy,
			StartedAt: caller.Impersonation.StartedAt,
		},
	})
}

// StartImpersonation begins impersonating the target principal. The session
// is carried in a signed cookie scoped to the browser session.
func (h *Handler) StartImpersonation(w http.ResponseWriter, r *http.Request) {
	caller, ok := principalFrom(w, r)
	if !ok {
		return
	}

	var body struct {
		TargetID string `json:"target_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	session, err := h.impersonation.Start(r.Context(), caller, body.TargetID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := middleware.SetImpersonationCookie(w, h.cookies, session, h.secureCookies); err != nil {
		h.logger.Error("write impersonation cookie failed", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, impersonationJSON{
		TargetID:  session.TargetID,
		StartedBy: session.StartedBy,
		StartedAt: session.StartedAt,
	})
}

// StopImpersonation ends the caller's impersonation session and clears the
// cookie. Only the administrator who started the session may stop it.
func (h *Handler) StopImpersonation(w http.ResponseWriter, r *http.Request) {
	caller, ok := principalFrom(w, r)
	if !ok {
		return
	}

	if err := h.impersonation.Stop(r.Context(), caller); err != nil {
		writeError(w, err)
		return
	}
	middleware.ClearImpersonationCookie(w, h.secureCookies)
	w.WriteHeader(http.StatusNoContent)
}
