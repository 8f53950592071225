package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"client-portal/internal/domain"
)

// ContextResolver composes the grant store, the active-tenant selector, and
// the preference store into the single chokepoint every feature area calls
// before reading tenant-scoped data.
type ContextResolver struct {
	grants  domain.GrantRepository
	tenants domain.TenantRepository
	prefs   domain.PreferenceRepository
	audit   domain.AuditRepository
	logger  *slog.Logger
}

// NewContextResolver creates a new ContextResolver.
func NewContextResolver(
	grants domain.GrantRepository,
	tenants domain.TenantRepository,
	prefs domain.PreferenceRepository,
	audit domain.AuditRepository,
	logger *slog.Logger,
) *ContextResolver {
	return &ContextResolver{grants: grants, tenants: tenants, prefs: prefs, audit: audit, logger: logger}
}

// ResolveContext determines the active tenant and permission bundle for the
// effective principal. It returns (nil, nil) when the principal holds zero
// active grants on live tenants — the caller renders an "unlinked account"
// state, not an error.
//
// preferredTenantID is the advisory hint from the preference cookie; it is
// only honored after re-validation against live grants. The durable
// server-side preference is consulted when the hint is empty or stale.
func (r *ContextResolver) ResolveContext(ctx context.Context, principalID, preferredTenantID string) (*domain.TenantContext, error) {
	if cached, ok := cachedContext(ctx, principalID); ok {
		return cached, nil
	}

	grants, err := r.grants.ListActiveForPrincipal(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("list grants for %s: %w", principalID, err)
	}

	// Grants whose tenant is archived (or gone) do not participate in
	// selection; the switcher hides those tenants, so resolution must not
	// land on them either.
	live := make([]domain.AccessGrant, 0, len(grants))
	tenantsByID := make(map[string]*domain.Tenant, len(grants))
	for _, g := range grants {
		tenant, err := r.tenants.GetByID(ctx, g.TenantID)
		if err != nil {
			if _, ok := err.(*domain.NotFoundError); ok {
				continue
			}
			return nil, fmt.Errorf("load tenant %s: %w", g.TenantID, err)
		}
		if tenant.Archived {
			continue
		}
		live = append(live, g)
		tenantsByID[g.TenantID] = tenant
	}
	if len(live) == 0 {
		storeContext(ctx, principalID, nil)
		return nil, nil
	}

	selected := r.selectActive(ctx, principalID, live, preferredTenantID)

	tc := &domain.TenantContext{Tenant: *tenantsByID[selected.TenantID], Permissions: selected.Permissions}
	storeContext(ctx, principalID, tc)
	return tc, nil
}

// selectActive picks the active tenant from a non-empty grant set:
//  1. a still-granted preference (cookie hint first, then the stored one),
//  2. the single grant when only one exists,
//  3. the deterministic default: oldest grant, tenant id as tie-break
//     (the order ListActiveForPrincipal already returns).
//
// When the outcome differs from the stored preference it is re-persisted
// fire-and-forget; a persist failure only affects future defaults.
func (r *ContextResolver) selectActive(ctx context.Context, principalID string, grants []domain.AccessGrant, hint string) domain.AccessGrant {
	byTenant := make(map[string]domain.AccessGrant, len(grants))
	for _, g := range grants {
		byTenant[g.TenantID] = g
	}

	stored, err := r.prefs.Get(ctx, principalID)
	if err != nil {
		r.logger.Warn("read active-tenant preference failed", "principal", principalID, "error", err)
		stored = ""
	}

	selected, ok := byTenant[hint]
	if !ok || hint == "" {
		if selected, ok = byTenant[stored]; !ok || stored == "" {
			selected = grants[0]
		}
	}

	if selected.TenantID != stored {
		if err := r.prefs.Set(ctx, principalID, selected.TenantID); err != nil {
			r.logger.Warn("persist active-tenant preference failed", "principal", principalID, "error", err)
		}
	}
	return selected
}

// SwitchActiveTenant makes tenantID the principal's active tenant. It fails
// with AccessDenied when no active grant covers the pair or the tenant is
// archived, and never mutates the stored preference on failure. On success
// it persists the preference and invalidates any cached resolution for the
// principal within the current request.
func (r *ContextResolver) SwitchActiveTenant(ctx context.Context, principalID, tenantID string) error {
	ok, err := r.grants.HasActiveGrant(ctx, principalID, tenantID)
	if err != nil {
		return fmt.Errorf("check access for %s on %s: %w", principalID, tenantID, err)
	}
	if ok {
		// An active grant is not enough: archived tenants are hidden
		// from the switcher and cannot become the active tenant.
		tenant, err := r.tenants.GetByID(ctx, tenantID)
		switch {
		case err == nil:
			ok = !tenant.Archived
		default:
			if _, notFound := err.(*domain.NotFoundError); !notFound {
				return fmt.Errorf("load tenant %s: %w", tenantID, err)
			}
			ok = false
		}
	}
	if !ok {
		_ = r.audit.Insert(ctx, &domain.AuditEntry{
			ActorID: actorID(ctx, principalID),
			Action:  fmt.Sprintf("SWITCH_TENANT(tenant=%s)", tenantID),
			Status:  domain.AuditDenied,
		})
		return domain.ErrAccessDenied("no active grant for tenant %s", tenantID)
	}

	if err := r.prefs.Set(ctx, principalID, tenantID); err != nil {
		return fmt.Errorf("persist preference: %w", err)
	}

	invalidateContext(ctx, principalID)
	_ = r.audit.Insert(ctx, &domain.AuditEntry{
		ActorID: actorID(ctx, principalID),
		Action:  fmt.Sprintf("SWITCH_TENANT(tenant=%s)", tenantID),
		Status:  domain.AuditAllowed,
	})
	return nil
}

// actorID attributes audit entries to the real principal when one is on the
// context, falling back to the effective id for non-HTTP callers.
func actorID(ctx context.Context, fallback string) string {
	if p, ok := domain.PrincipalFromContext(ctx); ok {
		return p.ExternalID
	}
	return fallback
}

// --- per-request resolution cache ---

type resolutionCacheKey struct{}

type resolutionCache struct {
	mu      sync.Mutex
	entries map[string]*domain.TenantContext
}

// WithResolutionCache attaches a request-scoped resolution cache. The HTTP
// middleware installs one per inbound request; resolutions are memoized for
// the request lifetime and dropped with it.
func WithResolutionCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, resolutionCacheKey{}, &resolutionCache{
		entries: make(map[string]*domain.TenantContext),
	})
}

func cachedContext(ctx context.Context, principalID string) (*domain.TenantContext, bool) {
	cache, ok := ctx.Value(resolutionCacheKey{}).(*resolutionCache)
	if !ok {
		return nil, false
	}
	cache.mu.Lock()
	defer cache.mu.Unlock()
	tc, ok := cache.entries[principalID]
	return tc, ok
}

func storeContext(ctx context.Context, principalID string, tc *domain.TenantContext) {
	cache, ok := ctx.Value(resolutionCacheKey{}).(*resolutionCache)
	if !ok {
		return
	}
	cache.mu.Lock()
	cache.entries[principalID] = tc
	cache.mu.Unlock()
}

func invalidateContext(ctx context.Context, principalID string) {
	cache, ok := ctx.Value(resolutionCacheKey{}).(*resolutionCache)
	if !ok {
		return
	}
	cache.mu.Lock()
	delete(cache.entries, principalID)
	cache.mu.Unlock()
}
