package domain

import "time"

// Health check statuses. A probe failure is recorded as a status string on
// the tenant's latest check; it never aborts the probe batch.
const (
	HealthStatusUp    = "up"
	HealthStatusDown  = "down"
	HealthStatusError = "error"
)

// HealthCheck is the persisted outcome of one site-health probe for a tenant.
type HealthCheck struct {
	ID        int64
	TenantID  string
	Status    string
	Detail    string // error string when the probe failed
	LatencyMS int64
	CheckedAt time.Time
}
