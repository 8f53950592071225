package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"client-portal/internal/domain"
	"client-portal/internal/identity"
)

// ImpersonationService implements the two-state impersonation machine:
// Normal <-> Impersonating(target). Start is gated on the REAL principal's
// role; Stop is always permitted for the administrator who initiated it.
// Both decisions deliberately ignore any attached impersonation snapshot.
type ImpersonationService struct {
	provider identity.Provider
	audit    domain.AuditRepository
	logger   *slog.Logger
}

// NewImpersonationService creates a new ImpersonationService.
func NewImpersonationService(provider identity.Provider, audit domain.AuditRepository, logger *slog.Logger) *ImpersonationService {
	return &ImpersonationService{provider: provider, audit: audit, logger: logger}
}

// Start transitions Normal -> Impersonating(target). Only administrators may
// impersonate, judged on the real role, and nested impersonation is refused.
// The returned snapshot (not a live lookup) is what downstream role checks
// use for the duration of the session.
func (s *ImpersonationService) Start(ctx context.Context, real domain.ContextPrincipal, targetID string) (*domain.ImpersonationSession, error) {
	if real.Role != domain.RoleAdmin {
		s.recordDenied(ctx, real, fmt.Sprintf("IMPERSONATE_START(target=%s)", targetID))
		return nil, domain.ErrAccessDenied("only administrators may impersonate")
	}
	if real.IsImpersonating() {
		return nil, domain.ErrValidation("already impersonating; stop the current session first")
	}
	if targetID == "" {
		return nil, domain.ErrValidation("target principal id is required")
	}
	if targetID == real.ExternalID {
		return nil, domain.ErrValidation("cannot impersonate yourself")
	}

	target, err := s.provider.GetPrincipal(ctx, targetID)
	if err != nil {
		return nil, err
	}

	session := &domain.ImpersonationSession{
		TargetID:    target.ExternalID,
		TargetEmail: target.Email,
		TargetName:  target.Name,
		TargetRole:  target.Role,
		StartedBy:   real.ExternalID,
		StartedAt:   time.Now().UTC(),
	}

	_ = s.audit.Insert(ctx, &domain.AuditEntry{
		ActorID: real.ExternalID,
		Action:  fmt.Sprintf("IMPERSONATE_START(target=%s)", targetID),
		Status:  domain.AuditAllowed,
	})
	s.logger.Info("impersonation started", "admin", real.ExternalID, "target", targetID)
	return session, nil
}

// Stop transitions Impersonating -> Normal. The check runs against the real
// principal: the effective (impersonated) identity can never block its own
// termination, and only the initiating administrator may stop the session.
func (s *ImpersonationService) Stop(ctx context.Context, real domain.ContextPrincipal) error {
	if real.Impersonation == nil {
		return domain.ErrValidation("no impersonation session is active")
	}
	if real.Impersonation.StartedBy != real.ExternalID {
		s.recordDenied(ctx, real, "IMPERSONATE_STOP")
		return domain.ErrAccessDenied("impersonation may only be stopped by the administrator who started it")
	}

	_ = s.audit.Insert(ctx, &domain.AuditEntry{
		ActorID: real.ExternalID,
		Action:  fmt.Sprintf("IMPERSONATE_STOP(target=%s)", real.Impersonation.TargetID),
		Status:  domain.AuditAllowed,
	})
	s.logger.Info("impersonation stopped", "admin", real.ExternalID, "target", real.Impersonation.TargetID)
	return nil
}

func (s *ImpersonationService) recordDenied(ctx context.Context, real domain.ContextPrincipal, action string) {
	_ = s.audit.Insert(ctx, &domain.AuditEntry{
		ActorID: real.ExternalID,
		Action:  action,
		Status:  domain.AuditDenied,
	})
}
