package service

import (
	"context"
	"fmt"
	"log/slog"

	"client-portal/internal/domain"
	"client-portal/internal/identity"
)

// PrincipalService keeps the local principal store in sync with the identity
// provider and serves the admin user-management listing.
type PrincipalService struct {
	principals domain.PrincipalRepository
	cache      *identity.CachingProvider // nil when no cache is wired
	logger     *slog.Logger
}

// NewPrincipalService creates a new PrincipalService. cache may be nil.
func NewPrincipalService(principals domain.PrincipalRepository, cache *identity.CachingProvider, logger *slog.Logger) *PrincipalService {
	return &PrincipalService{principals: principals, cache: cache, logger: logger}
}

// ApplyWebhookEvent upserts the denormalized principal record from an
// identity-provider event and drops any cached copy. Unknown event types
// are ignored rather than rejected so new provider events don't break
// delivery.
func (s *PrincipalService) ApplyWebhookEvent(ctx context.Context, event identity.WebhookEvent) error {
	switch event.Type {
	case identity.EventPrincipalCreated, identity.EventPrincipalUpdated:
	default:
		s.logger.Debug("ignoring identity webhook event", "type", event.Type)
		return nil
	}

	if event.Data.ID == "" {
		return domain.ErrValidation("webhook event is missing the principal id")
	}
	role := domain.Role(event.Data.Role)
	if !role.Valid() {
		role = domain.RoleClient
	}

	_, err := s.principals.Upsert(ctx, &domain.Principal{
		ExternalID: event.Data.ID,
		Email:      event.Data.Email,
		Name:       event.Data.Name,
		Role:       role,
	})
	if err != nil {
		return fmt.Errorf("upsert principal %s: %w", event.Data.ID, err)
	}

	if s.cache != nil {
		s.cache.Invalidate(event.Data.ID)
	}
	s.logger.Info("principal synced", "principal", event.Data.ID, "event", event.Type)
	return nil
}

// Get returns one principal by external id. Admin only.
func (s *PrincipalService) Get(ctx context.Context, externalID string) (*domain.Principal, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.principals.GetByExternalID(ctx, externalID)
}

// List returns principals for the admin user-management screens.
func (s *PrincipalService) List(ctx context.Context, page domain.PageRequest) ([]domain.Principal, int64, error) {
	if _, err := requireRole(ctx, domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	return s.principals.List(ctx, page)
}
