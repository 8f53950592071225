package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"client-portal/internal/domain"
)

// stubProvider serves principals from a map, NotFound otherwise.
type stubProvider struct {
	principals map[string]domain.Principal
}

func (p *stubProvider) GetPrincipal(_ context.Context, externalID string) (*domain.Principal, error) {
	if found, ok := p.principals[externalID]; ok {
		return &found, nil
	}
	return nil, domain.ErrNotFound("principal %s", externalID)
}

func (p *stubProvider) ListPrincipals(context.Context) ([]domain.Principal, error) {
	out := make([]domain.Principal, 0, len(p.principals))
	for _, pr := range p.principals {
		out = append(out, pr)
	}
	return out, nil
}

func newTestAuthenticator(provider *stubProvider) (*Authenticator, *SignedCookieCodec) {
	validator, _ := NewHS256Validator("test-secret")
	codec := NewSignedCookieCodec("cookie-secret")
	return NewAuthenticator(validator, provider, codec), codec
}

// capture runs the middleware and returns the principal the handler saw.
func capture(t *testing.T, a *Authenticator, req *http.Request) (domain.ContextPrincipal, *httptest.ResponseRecorder, bool) {
	t.Helper()
	var (
		got domain.ContextPrincipal
		ok  bool
	)
	rec := httptest.NewRecorder()
	a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = domain.PrincipalFromContext(r.Context())
	})).ServeHTTP(rec, req)
	return got, rec, ok
}

func bearerRequest(t *testing.T, sub string) *http.Request {
	t.Helper()
	token := mintHS256(t, "test-secret", jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/context", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAuthenticator_NoToken(t *testing.T) {
	a, _ := newTestAuthenticator(&stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/v1/context", nil)
	_, rec, ok := capture(t, a, req)
	if ok {
		t.Fatal("handler must not run without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticator_StoredPrincipalWins(t *testing.T) {
	provider := &stubProvider{principals: map[string]domain.Principal{
		"u1": {ExternalID: "u1", Email: "stored@example.com", Name: "Stored", Role: domain.RoleStaff},
	}}
	a, _ := newTestAuthenticator(provider)

	got, rec, ok := capture(t, a, bearerRequest(t, "u1"))
	if !ok {
		t.Fatalf("expected authenticated request, got %d: %s", rec.Code, rec.Body.String())
	}
	// The webhook-synced record is authoritative over token claims.
	if got.Email != "stored@example.com" || got.Role != domain.RoleStaff {
		t.Errorf("expected stored principal, got %+v", got)
	}
}

func TestAuthenticator_UnknownPrincipalFallsBackToClaims(t *testing.T) {
	a, _ := newTestAuthenticator(&stubProvider{})

	got, rec, ok := capture(t, a, bearerRequest(t, "u-new"))
	if !ok {
		t.Fatalf("expected authenticated request, got %d", rec.Code)
	}
	if got.ExternalID != "u-new" {
		t.Errorf("expected u-new, got %q", got.ExternalID)
	}
	// Never-seen principals default to the least-privileged role.
	if got.Role != domain.RoleClient {
		t.Errorf("expected client role fallback, got %s", got.Role)
	}
}

func TestAuthenticator_ImpersonationCookieAccepted(t *testing.T) {
	provider := &stubProvider{principals: map[string]domain.Principal{
		"a1": {ExternalID: "a1", Role: domain.RoleAdmin},
	}}
	a, codec := newTestAuthenticator(provider)

	payload, _ := json.Marshal(domain.ImpersonationSession{
		TargetID: "u2", TargetRole: domain.RoleClient, StartedBy: "a1",
	})
	req := bearerRequest(t, "a1")
	req.AddCookie(&http.Cookie{Name: ImpersonationCookieName, Value: codec.Encode(payload)})

	got, _, ok := capture(t, a, req)
	if !ok {
		t.Fatal("expected authenticated request")
	}
	if !got.IsImpersonating() || got.EffectiveID() != "u2" {
		t.Fatalf("expected impersonation attached, got %+v", got)
	}
	if got.ExternalID != "a1" {
		t.Errorf("real principal must stay a1, got %s", got.ExternalID)
	}
}

func TestAuthenticator_ImpersonationCookieFailClosed(t *testing.T) {
	provider := &stubProvider{principals: map[string]domain.Principal{
		"a1": {ExternalID: "a1", Role: domain.RoleAdmin},
		"s1": {ExternalID: "s1", Role: domain.RoleStaff},
	}}
	a, codec := newTestAuthenticator(provider)

	session := func(startedBy string) string {
		payload, _ := json.Marshal(domain.ImpersonationSession{
			TargetID: "u2", TargetRole: domain.RoleClient, StartedBy: startedBy,
		})
		return codec.Encode(payload)
	}

	cases := []struct {
		name   string
		sub    string
		cookie string
	}{
		{"tampered signature", "a1", session("a1") + "x"},
		{"unsigned payload", "a1", `{"target_id":"u2","started_by":"a1"}`},
		{"non-admin real role", "s1", session("s1")},
		{"started by someone else", "a1", session("a2")},
	}
	for _, tc := range cases {
		req := bearerRequest(t, tc.sub)
		req.AddCookie(&http.Cookie{Name: ImpersonationCookieName, Value: tc.cookie})

		got, _, ok := capture(t, a, req)
		if !ok {
			t.Fatalf("%s: request must still authenticate", tc.name)
		}
		if got.IsImpersonating() {
			t.Errorf("%s: impersonation cookie must be ignored", tc.name)
		}
	}
}
