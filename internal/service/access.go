// Package service implements the portal's business logic over the domain
// repositories: grant resolution, tenant context, impersonation, and
// tenant/principal administration.
package service

import (
	"context"
	"fmt"

	"client-portal/internal/domain"
)

// AccessService is the access grant store. Reads are fail-closed: a missing
// grant is an empty result or false, never an error, so callers cannot
// mistake a fault for an absence (or the reverse).
type AccessService struct {
	grants  domain.GrantRepository
	tenants domain.TenantRepository
	audit   domain.AuditRepository
}

// NewAccessService creates a new AccessService.
func NewAccessService(grants domain.GrantRepository, tenants domain.TenantRepository, audit domain.AuditRepository) *AccessService {
	return &AccessService{grants: grants, tenants: tenants, audit: audit}
}

// GrantsFor returns the principal's active grants. An empty slice is a valid
// result: the principal simply has no tenant access.
func (s *AccessService) GrantsFor(ctx context.Context, principalID string) ([]domain.AccessGrant, error) {
	return s.grants.ListActiveForPrincipal(ctx, principalID)
}

// HasAccess reports whether an active grant exists for exactly the
// (principal, tenant) pair.
func (s *AccessService) HasAccess(ctx context.Context, principalID, tenantID string) (bool, error) {
	return s.grants.HasActiveGrant(ctx, principalID, tenantID)
}

// ListAccessibleTenants returns the tenant records the principal may act
// for, paired with each grant's permission bundle. Archived tenants are
// skipped even when a grant is still active.
func (s *AccessService) ListAccessibleTenants(ctx context.Context, principalID string) ([]domain.AccessibleTenant, error) {
	grants, err := s.grants.ListActiveForPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.AccessibleTenant, 0, len(grants))
	for _, g := range grants {
		tenant, err := s.tenants.GetByID(ctx, g.TenantID)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				continue
			}
			return nil, err
		}
		if tenant.Archived {
			continue
		}
		out = append(out, domain.AccessibleTenant{Tenant: *tenant, Permissions: g.Permissions})
	}
	return out, nil
}

// Grant creates an access grant for (tenant, principal). Admin only.
func (s *AccessService) Grant(ctx context.Context, tenantID, principalID string, perms domain.PermissionBundle) (*domain.AccessGrant, error) {
	caller, err := requireRole(ctx, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if tenantID == "" || principalID == "" {
		return nil, domain.ErrValidation("tenant id and principal id are required")
	}
	if _, err := s.tenants.GetByID(ctx, tenantID); err != nil {
		return nil, err
	}

	grant, err := s.grants.Create(ctx, &domain.AccessGrant{
		ID:          domain.NewID(),
		TenantID:    tenantID,
		PrincipalID: principalID,
		Active:      true,
		Permissions: perms,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, caller, fmt.Sprintf("GRANT_ACCESS(tenant=%s, principal=%s)", tenantID, principalID))
	return grant, nil
}

// Revoke deletes the grant for (tenant, principal). Admin only.
func (s *AccessService) Revoke(ctx context.Context, tenantID, principalID string) error {
	caller, err := requireRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.grants.Delete(ctx, tenantID, principalID); err != nil {
		return err
	}
	s.record(ctx, caller, fmt.Sprintf("REVOKE_ACCESS(tenant=%s, principal=%s)", tenantID, principalID))
	return nil
}

// SetActive toggles a grant's activation flag. Deactivating immediately
// removes the grant from all resolution. Admin only.
func (s *AccessService) SetActive(ctx context.Context, tenantID, principalID string, active bool) error {
	caller, err := requireRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.grants.SetActive(ctx, tenantID, principalID, active); err != nil {
		return err
	}
	s.record(ctx, caller, fmt.Sprintf("SET_GRANT_ACTIVE(tenant=%s, principal=%s, active=%t)", tenantID, principalID, active))
	return nil
}

// UpdatePermissions replaces a grant's permission bundle. Admin only.
func (s *AccessService) UpdatePermissions(ctx context.Context, tenantID, principalID string, perms domain.PermissionBundle) error {
	caller, err := requireRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.grants.UpdatePermissions(ctx, tenantID, principalID, perms); err != nil {
		return err
	}
	s.record(ctx, caller, fmt.Sprintf("UPDATE_GRANT_PERMISSIONS(tenant=%s, principal=%s)", tenantID, principalID))
	return nil
}

// ListForTenant returns all grants on a tenant, active or not. Staff and
// admin only; end users never see the raw grant list.
func (s *AccessService) ListForTenant(ctx context.Context, tenantID string) ([]domain.AccessGrant, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}
	return s.grants.ListForTenant(ctx, tenantID)
}

func (s *AccessService) record(ctx context.Context, caller domain.ContextPrincipal, action string) {
	_ = s.audit.Insert(ctx, &domain.AuditEntry{
		ActorID: caller.ExternalID,
		Action:  action,
		Status:  domain.AuditAllowed,
	})
}

// requireRole checks the EFFECTIVE role against the allowed set. An
// administrator impersonating an end user is therefore constrained to
// end-user permissions, as required. The real principal is still returned
// for audit attribution.
func requireRole(ctx context.Context, roles ...domain.Role) (domain.ContextPrincipal, error) {
	caller, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return domain.ContextPrincipal{}, domain.ErrUnauthenticated("authentication required")
	}
	effective := caller.EffectiveRole()
	for _, r := range roles {
		if effective == r {
			return caller, nil
		}
	}
	return domain.ContextPrincipal{}, domain.ErrAccessDenied("role %q is not permitted to perform this action", effective)
}
