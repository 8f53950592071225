package service

import (
	"context"
	"testing"

	"client-portal/internal/domain"
)

func newAccess(e *testEnv) *AccessService {
	return NewAccessService(e.grants, e.tenants, e.audit)
}

func TestHasAccess_FollowsGrantLifecycle(t *testing.T) {
	e := setupEnv(t)
	svc := newAccess(e)
	admin := ctxAs(domain.RoleAdmin, "a1")

	e.mustTenant(t, "tenant-a", "Acme")

	ok, err := svc.HasAccess(context.Background(), "u1", "tenant-a")
	if err != nil {
		t.Fatalf("hasAccess: %v", err)
	}
	if ok {
		t.Fatal("no grant yet: expected false")
	}

	if _, err := svc.Grant(admin, "tenant-a", "u1", domain.PermissionBundle{Billing: true}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if ok, _ = svc.HasAccess(context.Background(), "u1", "tenant-a"); !ok {
		t.Fatal("expected access after grant")
	}

	if err := svc.SetActive(admin, "tenant-a", "u1", false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if ok, _ = svc.HasAccess(context.Background(), "u1", "tenant-a"); ok {
		t.Fatal("deactivated grant must not confer access")
	}

	if err := svc.SetActive(admin, "tenant-a", "u1", true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if ok, _ = svc.HasAccess(context.Background(), "u1", "tenant-a"); !ok {
		t.Fatal("expected access after reactivation")
	}

	if err := svc.Revoke(admin, "tenant-a", "u1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ = svc.HasAccess(context.Background(), "u1", "tenant-a"); ok {
		t.Fatal("revoked grant must not confer access")
	}
}

func TestGrant_PerTenantPermissions(t *testing.T) {
	e := setupEnv(t)
	svc := newAccess(e)
	admin := ctxAs(domain.RoleAdmin, "a1")

	// u1 sees billing for A but not for B: permissions live on the grant,
	// not the principal.
	e.mustTenant(t, "tenant-a", "Acme")
	e.mustTenant(t, "tenant-b", "Beta")
	if _, err := svc.Grant(admin, "tenant-a", "u1", domain.PermissionBundle{Billing: true, Uptime: true}); err != nil {
		t.Fatalf("grant a: %v", err)
	}
	if _, err := svc.Grant(admin, "tenant-b", "u1", domain.PermissionBundle{Analytics: true}); err != nil {
		t.Fatalf("grant b: %v", err)
	}

	accessible, err := svc.ListAccessibleTenants(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list accessible: %v", err)
	}
	if len(accessible) != 2 {
		t.Fatalf("expected 2 accessible tenants, got %d", len(accessible))
	}

	byID := map[string]domain.PermissionBundle{}
	for _, a := range accessible {
		byID[a.Tenant.ID] = a.Permissions
	}
	if !byID["tenant-a"].Billing || byID["tenant-a"].Analytics {
		t.Errorf("tenant-a bundle wrong: %+v", byID["tenant-a"])
	}
	if byID["tenant-b"].Billing || !byID["tenant-b"].Analytics {
		t.Errorf("tenant-b bundle wrong: %+v", byID["tenant-b"])
	}
}

func TestListAccessibleTenants_SkipsArchived(t *testing.T) {
	e := setupEnv(t)
	svc := newAccess(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustTenant(t, "tenant-b", "Beta")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{})
	e.mustGrant(t, "tenant-b", "u1", domain.PermissionBundle{})

	if err := e.tenants.SetArchived(context.Background(), "tenant-b", true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	accessible, err := svc.ListAccessibleTenants(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list accessible: %v", err)
	}
	if len(accessible) != 1 || accessible[0].Tenant.ID != "tenant-a" {
		t.Fatalf("archived tenant must be skipped, got %+v", accessible)
	}
}

func TestGrant_RequiresAdmin(t *testing.T) {
	e := setupEnv(t)
	svc := newAccess(e)

	e.mustTenant(t, "tenant-a", "Acme")

	for _, role := range []domain.Role{domain.RoleStaff, domain.RoleClient} {
		_, err := svc.Grant(ctxAs(role, "x"), "tenant-a", "u1", domain.PermissionBundle{})
		if _, ok := err.(*domain.AccessDeniedError); !ok {
			t.Errorf("role %s: expected AccessDeniedError, got %v", role, err)
		}
	}

	_, err := svc.Grant(context.Background(), "tenant-a", "u1", domain.PermissionBundle{})
	if _, ok := err.(*domain.UnauthenticatedError); !ok {
		t.Errorf("no principal: expected UnauthenticatedError, got %v", err)
	}
}

func TestGrant_DuplicateConflicts(t *testing.T) {
	e := setupEnv(t)
	svc := newAccess(e)
	admin := ctxAs(domain.RoleAdmin, "a1")

	e.mustTenant(t, "tenant-a", "Acme")
	if _, err := svc.Grant(admin, "tenant-a", "u1", domain.PermissionBundle{}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	_, err := svc.Grant(admin, "tenant-a", "u1", domain.PermissionBundle{})
	if _, ok := err.(*domain.ConflictError); !ok {
		t.Fatalf("expected ConflictError for duplicate grant, got %v", err)
	}
}

func TestGrant_UnknownTenant(t *testing.T) {
	e := setupEnv(t)
	svc := newAccess(e)

	_, err := svc.Grant(ctxAs(domain.RoleAdmin, "a1"), "tenant-missing", "u1", domain.PermissionBundle{})
	if _, ok := err.(*domain.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRequireRole_UsesEffectiveRole(t *testing.T) {
	e := setupEnv(t)
	svc := newAccess(e)

	e.mustTenant(t, "tenant-a", "Acme")
	client := e.mustPrincipal(t, "u2", domain.RoleClient)

	// An admin impersonating a client is constrained to client
	// permissions: the grant mutation is refused.
	ctx := ctxImpersonating("a1", *client)
	_, err := svc.Grant(ctx, "tenant-a", "u1", domain.PermissionBundle{})
	if _, ok := err.(*domain.AccessDeniedError); !ok {
		t.Fatalf("expected AccessDeniedError while impersonating a client, got %v", err)
	}
}

func TestGrantAudit_AttributedToRealPrincipal(t *testing.T) {
	e := setupEnv(t)
	svc := newAccess(e)
	admin := ctxAs(domain.RoleAdmin, "a1")

	e.mustTenant(t, "tenant-a", "Acme")
	if _, err := svc.Grant(admin, "tenant-a", "u1", domain.PermissionBundle{}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	entry := lastAuditEntry(t, e.audit)
	if entry.ActorID != "a1" {
		t.Errorf("expected audit actor a1, got %s", entry.ActorID)
	}
	if entry.Status != domain.AuditAllowed {
		t.Errorf("expected ALLOWED, got %s", entry.Status)
	}
}

func TestListForTenant_StaffAllowedClientDenied(t *testing.T) {
	e := setupEnv(t)
	svc := newAccess(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{})

	if _, err := svc.ListForTenant(ctxAs(domain.RoleStaff, "s1"), "tenant-a"); err != nil {
		t.Fatalf("staff listing should be allowed: %v", err)
	}
	_, err := svc.ListForTenant(ctxAs(domain.RoleClient, "u1"), "tenant-a")
	if _, ok := err.(*domain.AccessDeniedError); !ok {
		t.Fatalf("client listing should be denied, got %v", err)
	}
}
