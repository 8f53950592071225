package domain

import "context"

type principalKey struct{}

// ContextPrincipal carries the authenticated identity through request
// context. Impersonation, when set, substitutes the effective identity;
// the real identity stays available for the checks that must bypass it
// (stopping impersonation, granting roles).
type ContextPrincipal struct {
	ExternalID string
	Email      string
	Name       string
	Role       Role

	Impersonation *ImpersonationSession
}

// Effective returns the acting identity: the impersonation snapshot when one
// is attached, otherwise the real principal.
func (p ContextPrincipal) Effective() ContextPrincipal {
	if p.Impersonation == nil {
		return p
	}
	return ContextPrincipal{
		ExternalID: p.Impersonation.TargetID,
		Email:      p.Impersonation.TargetEmail,
		Name:       p.Impersonation.TargetName,
		Role:       p.Impersonation.TargetRole,
	}
}

// EffectiveID returns the external id of the acting identity.
func (p ContextPrincipal) EffectiveID() string {
	if p.Impersonation != nil {
		return p.Impersonation.TargetID
	}
	return p.ExternalID
}

// EffectiveRole returns the role downstream checks must use. While
// impersonating this is the snapshot role, never the real principal's.
func (p ContextPrincipal) EffectiveRole() Role {
	if p.Impersonation != nil {
		return p.Impersonation.TargetRole
	}
	return p.Role
}

// IsImpersonating reports whether an impersonation session is attached.
func (p ContextPrincipal) IsImpersonating() bool {
	return p.Impersonation != nil
}

// WithPrincipal stores a ContextPrincipal in the context.
func WithPrincipal(ctx context.Context, p ContextPrincipal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext extracts the ContextPrincipal from the context.
func PrincipalFromContext(ctx context.Context) (ContextPrincipal, bool) {
	p, ok := ctx.Value(principalKey{}).(ContextPrincipal)
	return p, ok
}
