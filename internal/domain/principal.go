package domain

import "time"

// Role is the coarse role claim supplied by the identity provider.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleClient Role = "client"
)

// Valid reports whether the role is one of the known role claims.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleClient:
		return true
	}
	return false
}

// Principal is an identity-provider user, denormalized into the local store.
// Principals are created and updated by identity-provider webhook events and
// are never deleted by this system.
type Principal struct {
	ExternalID string // stable id issued by the identity provider
	Email      string
	Name       string
	Role       Role
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
