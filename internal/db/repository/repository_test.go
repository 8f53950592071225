package repository

import (
	"context"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"client-portal/internal/db"
	"client-portal/internal/domain"
)

func setupRepos(t *testing.T) (*TenantRepo, *GrantRepo, *PreferenceRepo, *PrincipalRepo) {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)
	return NewTenantRepo(writeDB, readDB), NewGrantRepo(writeDB, readDB), NewPreferenceRepo(writeDB, readDB), NewPrincipalRepo(writeDB, readDB)
}

func createTenant(t *testing.T, tenants *TenantRepo, id string, monitorID *string) *domain.Tenant {
	t.Helper()
	tenant, err := tenants.Create(context.Background(), &domain.Tenant{ID: id, Name: id, UptimeMonitorID: monitorID})
	if err != nil {
		t.Fatalf("create tenant %s: %v", id, err)
	}
	return tenant
}

func createGrant(t *testing.T, grants *GrantRepo, tenantID, principalID string) *domain.AccessGrant {
	t.Helper()
	g, err := grants.Create(context.Background(), &domain.AccessGrant{
		ID:          domain.NewID(),
		TenantID:    tenantID,
		PrincipalID: principalID,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("create grant (%s, %s): %v", tenantID, principalID, err)
	}
	return g
}

func TestGrantCreate_DuplicatePairConflicts(t *testing.T) {
	tenants, grants, _, _ := setupRepos(t)
	ctx := context.Background()

	createTenant(t, tenants, "tenant-a", nil)
	createGrant(t, grants, "tenant-a", "u1")

	_, err := grants.Create(ctx, &domain.AccessGrant{
		ID: domain.NewID(), TenantID: "tenant-a", PrincipalID: "u1", Active: true,
	})
	if _, ok := err.(*domain.ConflictError); !ok {
		t.Fatalf("expected ConflictError for duplicate (tenant, principal), got %v", err)
	}
}

func TestGrantUpdates_MissingRowIsNotFound(t *testing.T) {
	tenants, grants, _, _ := setupRepos(t)
	ctx := context.Background()
	createTenant(t, tenants, "tenant-a", nil)

	if err := grants.SetActive(ctx, "tenant-a", "u-missing", false); err == nil {
		t.Fatal("expected error")
	} else if _, ok := err.(*domain.NotFoundError); !ok {
		t.Fatalf("SetActive: expected NotFoundError, got %v", err)
	}

	err := grants.UpdatePermissions(ctx, "tenant-a", "u-missing", domain.PermissionBundle{Billing: true})
	if _, ok := err.(*domain.NotFoundError); !ok {
		t.Fatalf("UpdatePermissions: expected NotFoundError, got %v", err)
	}

	err = grants.Delete(ctx, "tenant-a", "u-missing")
	if _, ok := err.(*domain.NotFoundError); !ok {
		t.Fatalf("Delete: expected NotFoundError, got %v", err)
	}
}

func TestGrantPermissions_RoundTrip(t *testing.T) {
	tenants, grants, _, _ := setupRepos(t)
	ctx := context.Background()
	createTenant(t, tenants, "tenant-a", nil)
	createGrant(t, grants, "tenant-a", "u1")

	want := domain.PermissionBundle{Billing: true, Uptime: true}
	if err := grants.UpdatePermissions(ctx, "tenant-a", "u1", want); err != nil {
		t.Fatalf("update permissions: %v", err)
	}

	g, err := grants.Get(ctx, "tenant-a", "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if g.Permissions != want {
		t.Errorf("expected %+v, got %+v", want, g.Permissions)
	}
}

func TestPreference_GetSetClear(t *testing.T) {
	_, _, prefs, _ := setupRepos(t)
	ctx := context.Background()

	// Unset is "", not an error.
	got, err := prefs.Get(ctx, "u1")
	if err != nil || got != "" {
		t.Fatalf("unset preference: got (%q, %v)", got, err)
	}

	if err := prefs.Set(ctx, "u1", "tenant-a"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := prefs.Set(ctx, "u1", "tenant-b"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got, _ = prefs.Get(ctx, "u1"); got != "tenant-b" {
		t.Errorf("expected last write tenant-b, got %q", got)
	}

	if err := prefs.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ = prefs.Get(ctx, "u1"); got != "" {
		t.Errorf("expected cleared preference, got %q", got)
	}

	// Clearing an unset preference is a no-op.
	if err := prefs.Clear(ctx, "u-never"); err != nil {
		t.Errorf("clear unset: %v", err)
	}
}

func TestTenantListMonitored(t *testing.T) {
	tenants, _, _, _ := setupRepos(t)
	ctx := context.Background()
	mon := "https://status.example.com"

	createTenant(t, tenants, "tenant-a", &mon)
	createTenant(t, tenants, "tenant-b", nil)
	createTenant(t, tenants, "tenant-c", &mon)
	if err := tenants.SetArchived(ctx, "tenant-c", true); err != nil {
		t.Fatalf("archive: %v", err)
	}

	monitored, err := tenants.ListMonitored(ctx)
	if err != nil {
		t.Fatalf("list monitored: %v", err)
	}
	if len(monitored) != 1 || monitored[0].ID != "tenant-a" {
		t.Fatalf("expected only tenant-a, got %+v", monitored)
	}
}

func TestTenantDelete_CascadesGrants(t *testing.T) {
	tenants, grants, _, _ := setupRepos(t)
	ctx := context.Background()

	createTenant(t, tenants, "tenant-a", nil)
	createGrant(t, grants, "tenant-a", "u1")

	if err := tenants.Delete(ctx, "tenant-a"); err != nil {
		t.Fatalf("delete tenant: %v", err)
	}

	_, err := grants.Get(ctx, "tenant-a", "u1")
	if _, ok := err.(*domain.NotFoundError); !ok {
		t.Fatalf("expected grant removed with its tenant, got %v", err)
	}
}

func TestPrincipalUpsert(t *testing.T) {
	_, _, _, principals := setupRepos(t)
	ctx := context.Background()

	created, err := principals.Upsert(ctx, &domain.Principal{
		ExternalID: "u1", Email: "u1@example.com", Name: "User One", Role: domain.RoleClient,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	updated, err := principals.Upsert(ctx, &domain.Principal{
		ExternalID: "u1", Email: "new@example.com", Name: "User One", Role: domain.RoleStaff,
	})
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if updated.Email != "new@example.com" || updated.Role != domain.RoleStaff {
		t.Errorf("upsert did not replace fields: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("upsert must preserve CreatedAt: %v vs %v", updated.CreatedAt, created.CreatedAt)
	}
}
