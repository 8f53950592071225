package service

import (
	"context"
	"testing"

	"client-portal/internal/domain"
)

func newResolver(e *testEnv) *ContextResolver {
	return NewContextResolver(e.grants, e.tenants, e.prefs, e.audit, e.logger)
}

func TestResolveContext_NoGrants(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	tc, err := r.ResolveContext(context.Background(), "u-nobody", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc != nil {
		t.Fatalf("expected nil context for principal with zero grants, got %+v", tc)
	}
}

func TestResolveContext_SingleGrant(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{Billing: true})

	tc, err := r.ResolveContext(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc == nil {
		t.Fatal("expected a resolved context")
	}
	if tc.Tenant.ID != "tenant-a" {
		t.Errorf("expected tenant-a, got %s", tc.Tenant.ID)
	}
	if !tc.Permissions.Billing || tc.Permissions.Analytics {
		t.Errorf("unexpected permissions: %+v", tc.Permissions)
	}
}

func TestResolveContext_DefaultIsDeterministic(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustTenant(t, "tenant-b", "Beta")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{Billing: true})
	e.mustGrant(t, "tenant-b", "u1", domain.PermissionBundle{Analytics: true})

	// No preference, no hint: the oldest grant wins, and repeated calls
	// agree with each other.
	for i := 0; i < 3; i++ {
		tc, err := r.ResolveContext(context.Background(), "u1", "")
		if err != nil {
			t.Fatalf("resolve #%d: %v", i, err)
		}
		if tc.Tenant.ID != "tenant-a" {
			t.Fatalf("resolve #%d: expected tenant-a, got %s", i, tc.Tenant.ID)
		}
	}

	// The resolved default is persisted as the preference.
	stored, err := e.prefs.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("read preference: %v", err)
	}
	if stored != "tenant-a" {
		t.Errorf("expected persisted preference tenant-a, got %q", stored)
	}
}

func TestResolveContext_HonorsStoredPreference(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustTenant(t, "tenant-b", "Beta")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{Billing: true})
	e.mustGrant(t, "tenant-b", "u1", domain.PermissionBundle{Analytics: true})

	if err := e.prefs.Set(context.Background(), "u1", "tenant-b"); err != nil {
		t.Fatalf("set preference: %v", err)
	}

	tc, err := r.ResolveContext(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.Tenant.ID != "tenant-b" {
		t.Errorf("expected stored preference tenant-b, got %s", tc.Tenant.ID)
	}
	if !tc.Permissions.Analytics || tc.Permissions.Billing {
		t.Errorf("permissions must come from the tenant-b grant, got %+v", tc.Permissions)
	}
}

func TestResolveContext_StalePreferenceFallsBack(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{Billing: true})

	// Preference points at a tenant the principal can no longer reach.
	if err := e.prefs.Set(context.Background(), "u1", "tenant-gone"); err != nil {
		t.Fatalf("set preference: %v", err)
	}

	tc, err := r.ResolveContext(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc == nil || tc.Tenant.ID != "tenant-a" {
		t.Fatalf("expected silent fallback to tenant-a, got %+v", tc)
	}

	// The stale preference was replaced by the fallback choice.
	stored, _ := e.prefs.Get(context.Background(), "u1")
	if stored != "tenant-a" {
		t.Errorf("expected preference re-persisted as tenant-a, got %q", stored)
	}
}

func TestResolveContext_CookieHintBeatsStoredPreference(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustTenant(t, "tenant-b", "Beta")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{})
	e.mustGrant(t, "tenant-b", "u1", domain.PermissionBundle{})

	if err := e.prefs.Set(context.Background(), "u1", "tenant-a"); err != nil {
		t.Fatalf("set preference: %v", err)
	}

	tc, err := r.ResolveContext(context.Background(), "u1", "tenant-b")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.Tenant.ID != "tenant-b" {
		t.Errorf("expected hint tenant-b to win, got %s", tc.Tenant.ID)
	}

	// The winning hint becomes the stored preference so hint-less requests
	// (API calls, a fresh browser) agree with what the user last saw.
	stored, _ := e.prefs.Get(context.Background(), "u1")
	if stored != "tenant-b" {
		t.Errorf("expected preference re-persisted as tenant-b, got %q", stored)
	}
}

func TestResolveContext_ArchivedTenantExcluded(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{Billing: true})
	if err := e.tenants.SetArchived(context.Background(), "tenant-a", true); err != nil {
		t.Fatalf("archive tenant: %v", err)
	}

	// The grant is still active, but its tenant is archived: the principal
	// resolves as unlinked, matching what the switcher shows.
	tc, err := r.ResolveContext(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc != nil {
		t.Fatalf("archived tenant must not resolve, got %+v", tc)
	}
}

func TestResolveContext_ArchivedTenantFallsBack(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustTenant(t, "tenant-b", "Beta")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{Billing: true})
	e.mustGrant(t, "tenant-b", "u1", domain.PermissionBundle{Analytics: true})

	if err := e.prefs.Set(context.Background(), "u1", "tenant-a"); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	if err := e.tenants.SetArchived(context.Background(), "tenant-a", true); err != nil {
		t.Fatalf("archive tenant: %v", err)
	}

	// Preference and hint both point at the archived tenant; resolution
	// falls through to the remaining live grant.
	tc, err := r.ResolveContext(context.Background(), "u1", "tenant-a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc == nil || tc.Tenant.ID != "tenant-b" {
		t.Fatalf("expected fallback to tenant-b, got %+v", tc)
	}

	stored, _ := e.prefs.Get(context.Background(), "u1")
	if stored != "tenant-b" {
		t.Errorf("expected preference re-persisted as tenant-b, got %q", stored)
	}
}

func TestResolveContext_UngrantedHintIgnored(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{})

	tc, err := r.ResolveContext(context.Background(), "u1", "tenant-forged")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.Tenant.ID != "tenant-a" {
		t.Errorf("forged hint must be ignored, got %s", tc.Tenant.ID)
	}
}

func TestResolveContext_InactiveGrantExcluded(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{})
	if err := e.grants.SetActive(context.Background(), "tenant-a", "u1", false); err != nil {
		t.Fatalf("deactivate grant: %v", err)
	}

	tc, err := r.ResolveContext(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc != nil {
		t.Fatalf("deactivated grant must not resolve, got %+v", tc)
	}
}

func TestSwitchActiveTenant_Success(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustTenant(t, "tenant-b", "Beta")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{})
	e.mustGrant(t, "tenant-b", "u1", domain.PermissionBundle{})

	if err := r.SwitchActiveTenant(context.Background(), "u1", "tenant-b"); err != nil {
		t.Fatalf("switch: %v", err)
	}

	stored, _ := e.prefs.Get(context.Background(), "u1")
	if stored != "tenant-b" {
		t.Errorf("expected preference tenant-b, got %q", stored)
	}

	entry := lastAuditEntry(t, e.audit)
	if entry.Status != domain.AuditAllowed {
		t.Errorf("expected ALLOWED audit entry, got %s", entry.Status)
	}
}

func TestSwitchActiveTenant_DeniedWithoutGrant(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustTenant(t, "tenant-b", "Beta")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{})

	if err := e.prefs.Set(context.Background(), "u1", "tenant-a"); err != nil {
		t.Fatalf("set preference: %v", err)
	}

	err := r.SwitchActiveTenant(context.Background(), "u1", "tenant-b")
	if err == nil {
		t.Fatal("expected denial")
	}
	if _, ok := err.(*domain.AccessDeniedError); !ok {
		t.Fatalf("expected AccessDeniedError, got %T: %v", err, err)
	}

	// The denied switch must not touch the stored preference.
	stored, _ := e.prefs.Get(context.Background(), "u1")
	if stored != "tenant-a" {
		t.Errorf("preference mutated by denied switch: %q", stored)
	}

	entry := lastAuditEntry(t, e.audit)
	if entry.Status != domain.AuditDenied {
		t.Errorf("expected DENIED audit entry, got %s", entry.Status)
	}
}

func TestSwitchActiveTenant_DeniedForArchivedTenant(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustTenant(t, "tenant-b", "Beta")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{})
	e.mustGrant(t, "tenant-b", "u1", domain.PermissionBundle{})

	if err := e.prefs.Set(context.Background(), "u1", "tenant-a"); err != nil {
		t.Fatalf("set preference: %v", err)
	}
	if err := e.tenants.SetArchived(context.Background(), "tenant-b", true); err != nil {
		t.Fatalf("archive tenant: %v", err)
	}

	// The grant on tenant-b is still active, but the tenant is archived:
	// the switch is denied just like a missing grant would be.
	err := r.SwitchActiveTenant(context.Background(), "u1", "tenant-b")
	if err == nil {
		t.Fatal("expected denial for archived tenant")
	}
	if _, ok := err.(*domain.AccessDeniedError); !ok {
		t.Fatalf("expected AccessDeniedError, got %T: %v", err, err)
	}

	stored, _ := e.prefs.Get(context.Background(), "u1")
	if stored != "tenant-a" {
		t.Errorf("preference mutated by denied switch: %q", stored)
	}

	entry := lastAuditEntry(t, e.audit)
	if entry.Status != domain.AuditDenied {
		t.Errorf("expected DENIED audit entry, got %s", entry.Status)
	}
}

func TestResolveContext_RequestCache(t *testing.T) {
	e := setupEnv(t)
	r := newResolver(e)

	e.mustTenant(t, "tenant-a", "Acme")
	e.mustTenant(t, "tenant-b", "Beta")
	e.mustGrant(t, "tenant-a", "u1", domain.PermissionBundle{})
	e.mustGrant(t, "tenant-b", "u1", domain.PermissionBundle{})

	ctx := WithResolutionCache(context.Background())

	tc1, err := r.ResolveContext(ctx, "u1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc1.Tenant.ID != "tenant-a" {
		t.Fatalf("expected tenant-a, got %s", tc1.Tenant.ID)
	}

	// A hint arriving later in the same request is ignored: the cached
	// resolution holds until something invalidates it.
	tc2, err := r.ResolveContext(ctx, "u1", "tenant-b")
	if err != nil {
		t.Fatalf("resolve (cached): %v", err)
	}
	if tc2.Tenant.ID != "tenant-a" {
		t.Fatalf("expected cached tenant-a, got %s", tc2.Tenant.ID)
	}

	// Switching invalidates the cache, so the next resolution sees the
	// new preference.
	if err := r.SwitchActiveTenant(ctx, "u1", "tenant-b"); err != nil {
		t.Fatalf("switch: %v", err)
	}
	tc3, err := r.ResolveContext(ctx, "u1", "")
	if err != nil {
		t.Fatalf("resolve (post-switch): %v", err)
	}
	if tc3.Tenant.ID != "tenant-b" {
		t.Fatalf("expected tenant-b after switch, got %s", tc3.Tenant.ID)
	}
}
