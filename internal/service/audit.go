package service

import (
	"context"

	"client-portal/internal/domain"
)

// AuditService exposes the append-only audit trail to administrators.
type AuditService struct {
	audit domain.AuditRepository
}

// NewAuditService creates a new AuditService.
func NewAuditService(audit domain.AuditRepository) *AuditService {
	return &AuditService{audit: audit}
}

// List returns audit entries, newest first. Admin only.
func (s *AuditService) List(ctx context.Context, page domain.PageRequest) ([]domain.AuditEntry, int64, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return s.audit.List(ctx, page)
}
