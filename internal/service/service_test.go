package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"client-portal/internal/db"
	"client-portal/internal/db/repository"
	"client-portal/internal/domain"
)

// testEnv bundles the real-SQLite repositories most service tests need.
type testEnv struct {
	principals *repository.PrincipalRepo
	tenants    *repository.TenantRepo
	grants     *repository.GrantRepo
	prefs      *repository.PreferenceRepo
	audit      *repository.AuditRepo
	logger     *slog.Logger
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)
	return &testEnv{
		principals: repository.NewPrincipalRepo(writeDB, readDB),
		tenants:    repository.NewTenantRepo(writeDB, readDB),
		grants:     repository.NewGrantRepo(writeDB, readDB),
		prefs:      repository.NewPreferenceRepo(writeDB, readDB),
		audit:      repository.NewAuditRepo(writeDB, readDB),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (e *testEnv) mustTenant(t *testing.T, id, name string) *domain.Tenant {
	t.Helper()
	tenant, err := e.tenants.Create(context.Background(), &domain.Tenant{ID: id, Name: name})
	if err != nil {
		t.Fatalf("create tenant %s: %v", name, err)
	}
	return tenant
}

func (e *testEnv) mustGrant(t *testing.T, tenantID, principalID string, perms domain.PermissionBundle) *domain.AccessGrant {
	t.Helper()
	grant, err := e.grants.Create(context.Background(), &domain.AccessGrant{
		ID:          domain.NewID(),
		TenantID:    tenantID,
		PrincipalID: principalID,
		Active:      true,
		Permissions: perms,
	})
	if err != nil {
		t.Fatalf("create grant (%s, %s): %v", tenantID, principalID, err)
	}
	return grant
}

func (e *testEnv) mustPrincipal(t *testing.T, id string, role domain.Role) *domain.Principal {
	t.Helper()
	p, err := e.principals.Upsert(context.Background(), &domain.Principal{
		ExternalID: id,
		Email:      id + "@example.com",
		Name:       id,
		Role:       role,
	})
	if err != nil {
		t.Fatalf("upsert principal %s: %v", id, err)
	}
	return p
}

// ctxAs returns a context carrying the given principal, the way the auth
// middleware would populate it.
func ctxAs(role domain.Role, id string) context.Context {
	return domain.WithPrincipal(context.Background(), domain.ContextPrincipal{
		ExternalID: id,
		Email:      id + "@example.com",
		Name:       id,
		Role:       role,
	})
}

// ctxImpersonating returns a context for admin adminID impersonating target.
func ctxImpersonating(adminID string, target domain.Principal) context.Context {
	return domain.WithPrincipal(context.Background(), domain.ContextPrincipal{
		ExternalID: adminID,
		Role:       domain.RoleAdmin,
		Impersonation: &domain.ImpersonationSession{
			TargetID:    target.ExternalID,
			TargetEmail: target.Email,
			TargetName:  target.Name,
			TargetRole:  target.Role,
			StartedBy:   adminID,
		},
	})
}

func lastAuditEntry(t *testing.T, audit *repository.AuditRepo) domain.AuditEntry {
	t.Helper()
	entries, _, err := audit.List(context.Background(), domain.PageRequest{MaxResults: 1})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one audit entry")
	}
	return entries[0]
}
