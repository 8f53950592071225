package domain

import "time"

// Tenant is a client organization with isolated data and a grant-based
// access list. Archiving is a soft flag; tenants are only hard-deleted
// through admin tooling, which cascades to their grants.
type Tenant struct {
	ID       string
	Name     string
	Archived bool

	// External SaaS references. All optional; a missing reference simply
	// disables the corresponding feature area for the tenant.
	BillingCustomerID *string
	AnalyticsSiteID   *string
	UptimeMonitorID   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TenantLinks carries the external SaaS references for update operations.
type TenantLinks struct {
	BillingCustomerID *string
	AnalyticsSiteID   *string
	UptimeMonitorID   *string
}

// TenantContext is the resolved effective context for one request: the
// active tenant plus the permission bundle from the principal's grant.
// It is the single object every feature area consumes before reading
// tenant-scoped data.
type TenantContext struct {
	Tenant      Tenant
	Permissions PermissionBundle
}
