package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"client-portal/internal/domain"
	"client-portal/internal/identity"
	"client-portal/internal/service"
)

// ImpersonationCookieName carries the signed impersonation snapshot for the
// duration of the browser session (no Max-Age).
const ImpersonationCookieName = "portal_impersonation"

// Authenticator turns a bearer token into a ContextPrincipal: it validates
// the JWT, loads the denormalized principal, and attaches any impersonation
// session carried in the signed session cookie. It also installs the
// per-request context-resolution cache.
type Authenticator struct {
	validator JWTValidator
	provider  identity.Provider
	cookies   *SignedCookieCodec
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(validator JWTValidator, provider identity.Provider, cookies *SignedCookieCodec) *Authenticator {
	return &Authenticator{validator: validator, provider: provider, cookies: cookies}
}

// Middleware authenticates the request or responds 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeUnauthorized(w, "provide a valid Bearer token")
			return
		}

		claims, err := a.validator.Validate(r.Context(), strings.TrimPrefix(auth, "Bearer "))
		if err != nil || claims.Subject == "" {
			writeUnauthorized(w, "token validation failed")
			return
		}

		principal, err := a.resolvePrincipal(r, claims)
		if err != nil {
			writeUnauthorized(w, "unknown principal")
			return
		}

		if session, ok := a.impersonationFromCookie(r, principal); ok {
			principal.Impersonation = session
		}

		ctx := domain.WithPrincipal(r.Context(), principal)
		ctx = service.WithResolutionCache(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// resolvePrincipal prefers the webhook-synced local record; the token's
// claims only fill in a principal the store has never seen.
func (a *Authenticator) resolvePrincipal(r *http.Request, claims *JWTClaims) (domain.ContextPrincipal, error) {
	stored, err := a.provider.GetPrincipal(r.Context(), claims.Subject)
	if err == nil {
		return domain.ContextPrincipal{
			ExternalID: stored.ExternalID,
			Email:      stored.Email,
			Name:       stored.Name,
			Role:       stored.Role,
		}, nil
	}
	if _, ok := err.(*domain.NotFoundError); !ok {
		return domain.ContextPrincipal{}, err
	}

	p := domain.ContextPrincipal{ExternalID: claims.Subject, Role: domain.RoleClient}
	if claims.Email != nil {
		p.Email = *claims.Email
	}
	if claims.Name != nil {
		p.Name = *claims.Name
	}
	if claims.Role != nil && domain.Role(*claims.Role).Valid() {
		p.Role = domain.Role(*claims.Role)
	}
	return p, nil
}

// impersonationFromCookie decodes and validates the impersonation cookie.
// Fail closed: any mismatch (bad signature, non-admin real role, session
// started by someone else) ignores the cookie entirely.
func (a *Authenticator) impersonationFromCookie(r *http.Request, real domain.ContextPrincipal) (*domain.ImpersonationSession, bool) {
	cookie, err := r.Cookie(ImpersonationCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	payload, ok := a.cookies.Decode(cookie.Value)
	if !ok {
		return nil, false
	}

	var session domain.ImpersonationSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, false
	}
	if real.Role != domain.RoleAdmin || session.StartedBy != real.ExternalID {
		return nil, false
	}
	return &session, true
}

// ClearImpersonationCookie expires the impersonation cookie.
func ClearImpersonationCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     ImpersonationCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// SetImpersonationCookie writes the signed impersonation session cookie.
// No Max-Age: the session ends with the browser session or an explicit stop.
func SetImpersonationCookie(w http.ResponseWriter, codec *SignedCookieCodec, session *domain.ImpersonationSession, secure bool) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ImpersonationCookieName,
		Value:    codec.Encode(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": "unauthorized: " + message,
	})
}
