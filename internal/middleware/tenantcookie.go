package middleware

import (
	"net/http"
	"time"
)

// ActiveTenantCookieName carries the signed active-tenant hint. The hint is
// advisory: resolution re-validates it against live grants on every request,
// and the server-side preference remains the durable record.
const ActiveTenantCookieName = "portal_active_tenant"

// activeTenantCookieMaxAge keeps the hint across browser restarts.
const activeTenantCookieMaxAge = int(30 * 24 * time.Hour / time.Second)

// SetActiveTenantCookie writes the signed active-tenant hint cookie.
func SetActiveTenantCookie(w http.ResponseWriter, codec *SignedCookieCodec, tenantID string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     ActiveTenantCookieName,
		Value:    codec.Encode([]byte(tenantID)),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   activeTenantCookieMaxAge,
	})
}

// ClearActiveTenantCookie expires the active-tenant hint cookie.
func ClearActiveTenantCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     ActiveTenantCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// ActiveTenantFromCookie returns the tenant id from a validly-signed hint
// cookie, or "" when the cookie is absent, malformed, or tampered.
func ActiveTenantFromCookie(r *http.Request, codec *SignedCookieCodec) string {
	cookie, err := r.Cookie(ActiveTenantCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	payload, ok := codec.Decode(cookie.Value)
	if !ok {
		return ""
	}
	return string(payload)
}
