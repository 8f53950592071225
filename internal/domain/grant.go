package domain

import "time"

// PermissionBundle gates feature access for one grant. Each flag controls
// visibility of the corresponding feature area for the granted tenant.
type PermissionBundle struct {
	Billing   bool
	Analytics bool
	Uptime    bool
}

// AccessGrant relates a principal to a tenant. At most one grant exists per
// (tenant, principal) pair; an inactive grant confers no access and is
// excluded from all resolution.
type AccessGrant struct {
	ID          string
	TenantID    string
	PrincipalID string // external id; no FK cascade, identity lifecycle is external
	Active      bool
	Permissions PermissionBundle
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AccessibleTenant pairs a tenant record with the permission bundle of the
// grant that makes it accessible.
type AccessibleTenant struct {
	Tenant      Tenant
	Permissions PermissionBundle
}
