// Package identity adapts the external identity provider behind a narrow
// interface. The portal never manages credentials itself; it consumes
// principals issued elsewhere and keeps a denormalized copy in its own store.
package identity

import (
	"context"

	"client-portal/internal/domain"
)

// Provider is the identity-provider collaborator. GetPrincipal returns
// NotFound for unknown ids; ListPrincipals backs the admin user-management
// screens.
type Provider interface {
	GetPrincipal(ctx context.Context, externalID string) (*domain.Principal, error)
	ListPrincipals(ctx context.Context) ([]domain.Principal, error)
}

// StoreProvider serves principals from the local denormalized store, which
// identity-provider webhooks keep current. It is the default Provider: the
// portal only talks to the identity provider's API from admin tooling.
type StoreProvider struct {
	principals domain.PrincipalRepository
}

// NewStoreProvider creates a Provider backed by the local principal store.
func NewStoreProvider(principals domain.PrincipalRepository) *StoreProvider {
	return &StoreProvider{principals: principals}
}

// GetPrincipal returns the locally cached principal.
func (p *StoreProvider) GetPrincipal(ctx context.Context, externalID string) (*domain.Principal, error) {
	return p.principals.GetByExternalID(ctx, externalID)
}

// ListPrincipals returns all locally cached principals.
func (p *StoreProvider) ListPrincipals(ctx context.Context) ([]domain.Principal, error) {
	all, _, err := p.principals.List(ctx, domain.PageRequest{MaxResults: domain.MaxMaxResults})
	return all, err
}
