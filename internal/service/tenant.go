package service

import (
	"context"
	"fmt"
	"strings"

	"client-portal/internal/domain"
)

// TenantService manages client organization records. Creation, archival, and
// link management are staff-level operations; hard deletion is admin only.
type TenantService struct {
	tenants domain.TenantRepository
	audit   domain.AuditRepository
}

// NewTenantService creates a new TenantService.
func NewTenantService(tenants domain.TenantRepository, audit domain.AuditRepository) *TenantService {
	return &TenantService{tenants: tenants, audit: audit}
}

// Create registers a new tenant.
func (s *TenantService) Create(ctx context.Context, name string) (*domain.Tenant, error) {
	caller, err := requireRole(ctx, domain.RoleAdmin, domain.RoleStaff)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrValidation("tenant name is required")
	}

	tenant, err := s.tenants.Create(ctx, &domain.Tenant{ID: domain.NewID(), Name: name})
	if err != nil {
		return nil, err
	}
	s.record(ctx, caller, fmt.Sprintf("CREATE_TENANT(id=%s, name=%s)", tenant.ID, name))
	return tenant, nil
}

// Get returns one tenant by id. Staff-level; end users reach tenants only
// through the context resolver.
func (s *TenantService) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, err
	}
	return s.tenants.GetByID(ctx, id)
}

// List returns tenants, optionally including archived ones.
func (s *TenantService) List(ctx context.Context, includeArchived bool, page domain.PageRequest) ([]domain.Tenant, int64, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin, domain.RoleStaff); err != nil {
		return nil, 0, err
	}
	return s.tenants.List(ctx, includeArchived, page)
}

// Archive soft-archives a tenant. Grants stay in place but the tenant drops
// out of accessible-tenant listings and probe schedules.
func (s *TenantService) Archive(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, true, "ARCHIVE_TENANT")
}

// Restore clears the archive flag.
func (s *TenantService) Restore(ctx context.Context, id string) error {
	return s.setArchived(ctx, id, false, "RESTORE_TENANT")
}

func (s *TenantService) setArchived(ctx context.Context, id string, archived bool, action string) error {
	caller, err := requireRole(ctx, domain.RoleAdmin, domain.RoleStaff)
	if err != nil {
		return err
	}
	if err := s.tenants.SetArchived(ctx, id, archived); err != nil {
		return err
	}
	s.record(ctx, caller, fmt.Sprintf("%s(id=%s)", action, id))
	return nil
}

// Rename updates the tenant display name.
func (s *TenantService) Rename(ctx context.Context, id, name string) error {
	caller, err := requireRole(ctx, domain.RoleAdmin, domain.RoleStaff)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrValidation("tenant name is required")
	}
	if err := s.tenants.Rename(ctx, id, name); err != nil {
		return err
	}
	s.record(ctx, caller, fmt.Sprintf("RENAME_TENANT(id=%s, name=%s)", id, name))
	return nil
}

// UpdateLinks replaces the tenant's external SaaS references.
func (s *TenantService) UpdateLinks(ctx context.Context, id string, links domain.TenantLinks) error {
	caller, err := requireRole(ctx, domain.RoleAdmin, domain.RoleStaff)
	if err != nil {
		return err
	}
	if err := s.tenants.UpdateLinks(ctx, id, links); err != nil {
		return err
	}
	s.record(ctx, caller, fmt.Sprintf("UPDATE_TENANT_LINKS(id=%s)", id))
	return nil
}

// Delete hard-deletes a tenant and, through the schema cascade, its grants.
// Admin only; archival is the normal lifecycle path.
func (s *TenantService) Delete(ctx context.Context, id string) error {
	caller, err := requireRole(ctx, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.tenants.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, caller, fmt.Sprintf("DELETE_TENANT(id=%s)", id))
	return nil
}

func (s *TenantService) record(ctx context.Context, caller domain.ContextPrincipal, action string) {
	_ = s.audit.Insert(ctx, &domain.AuditEntry{
		ActorID: caller.ExternalID,
		Action:  action,
		Status:  domain.AuditAllowed,
	})
}
