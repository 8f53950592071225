package domain

import (
	"context"
	"time"
)

// PrincipalRepository persists denormalized identity-provider principals.
type PrincipalRepository interface {
	Upsert(ctx context.Context, p *Principal) (*Principal, error)
	GetByExternalID(ctx context.Context, externalID string) (*Principal, error)
	List(ctx context.Context, page PageRequest) ([]Principal, int64, error)
}

// TenantRepository persists client organizations.
type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) (*Tenant, error)
	GetByID(ctx context.Context, id string) (*Tenant, error)
	List(ctx context.Context, includeArchived bool, page PageRequest) ([]Tenant, int64, error)
	SetArchived(ctx context.Context, id string, archived bool) error
	UpdateLinks(ctx context.Context, id string, links TenantLinks) error
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	ListMonitored(ctx context.Context) ([]Tenant, error)
}

// GrantRepository persists the many-to-many principal/tenant relation.
// Lookups return empty results for missing grants, never errors, so access
// checks cannot fail open by mistaking a fault for an absence.
type GrantRepository interface {
	Create(ctx context.Context, g *AccessGrant) (*AccessGrant, error)
	Get(ctx context.Context, tenantID, principalID string) (*AccessGrant, error)
	ListActiveForPrincipal(ctx context.Context, principalID string) ([]AccessGrant, error)
	ListForTenant(ctx context.Context, tenantID string) ([]AccessGrant, error)
	HasActiveGrant(ctx context.Context, principalID, tenantID string) (bool, error)
	SetActive(ctx context.Context, tenantID, principalID string, active bool) error
	UpdatePermissions(ctx context.Context, tenantID, principalID string, perms PermissionBundle) error
	Delete(ctx context.Context, tenantID, principalID string) error
}

// PreferenceRepository persists the per-principal sticky active-tenant
// selection. Writes are last-write-wins; the stored value is advisory and
// must be re-validated against live grants before use.
type PreferenceRepository interface {
	Get(ctx context.Context, principalID string) (string, error) // "" when unset
	Set(ctx context.Context, principalID, tenantID string) error
	Clear(ctx context.Context, principalID string) error
}

// AuditRepository appends audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, e *AuditEntry) error
	List(ctx context.Context, page PageRequest) ([]AuditEntry, int64, error)
}

// HealthRepository persists site-health probe outcomes.
type HealthRepository interface {
	Insert(ctx context.Context, c *HealthCheck) error
	Latest(ctx context.Context, tenantID string) (*HealthCheck, error)
	ListForTenant(ctx context.Context, tenantID string, since time.Time) ([]HealthCheck, error)
}
