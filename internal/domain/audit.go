package domain

import "time"

// Audit entry statuses.
const (
	AuditAllowed = "ALLOWED"
	AuditDenied  = "DENIED"
)

// AuditEntry is an append-only record of a security-relevant action:
// grant mutations, tenant lifecycle, impersonation start/stop, and
// context switches.
type AuditEntry struct {
	ID        int64
	ActorID   string // external id of the REAL principal, never the impersonated one
	Action    string
	Status    string
	Detail    string
	CreatedAt time.Time
}
