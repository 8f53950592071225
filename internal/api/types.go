package api

import (
	"time"

	"client-portal/internal/domain"
)

// Wire representations for the /v1 API.

type permissionsJSON struct {
	Billing   bool `json:"billing"`
	Analytics bool `json:"analytics"`
	Uptime    bool `json:"uptime"`
}

type tenantJSON struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Archived          bool      `json:"archived"`
	BillingCustomerID *string   `json:"billing_customer_id,omitempty"`
	AnalyticsSiteID   *string   `json:"analytics_site_id,omitempty"`
	UptimeMonitorID   *string   `json:"uptime_monitor_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type grantJSON struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	PrincipalID string          `json:"principal_id"`
	Active      bool            `json:"active"`
	Permissions permissionsJSON `json:"permissions"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type principalJSON struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type auditEntryJSON struct {
	ID        int64     `json:"id"`
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type healthCheckJSON struct {
	TenantID  string    `json:"tenant_id"`
	Status    string    `json:"status"`
	Detail    string    `json:"detail,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	CheckedAt time.Time `json:"checked_at"`
}

type impersonationJSON struct {
	TargetID  string    `json:"target_id"`
	StartedBy string    `json:"started_by"`
	StartedAt time.Time `json:"started_at"`
}

func permissionsToAPI(p domain.PermissionBundle) permissionsJSON {
	return permissionsJSON{Billing: p.Billing, Analytics: p.Analytics, Uptime: p.Uptime}
}

func (p permissionsJSON) toDomain() domain.PermissionBundle {
	return domain.PermissionBundle{Billing: p.Billing, Analytics: p.Analytics, Uptime: p.Uptime}
}

func tenantToAPI(t domain.Tenant) tenantJSON {
	return tenantJSON{
		ID:                t.ID,
		Name:              t.Name,
		Archived:          t.Archived,
		BillingCustomerID: t.BillingCustomerID,
		AnalyticsSiteID:   t.AnalyticsSiteID,
		UptimeMonitorID:   t.UptimeMonitorID,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func grantToAPI(g domain.AccessGrant) grantJSON {
	return grantJSON{
		ID:          g.ID,
		TenantID:    g.TenantID,
		PrincipalID: g.PrincipalID,
		Active:      g.Active,
		Permissions: permissionsToAPI(g.Permissions),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func principalToAPI(p domain.Principal) principalJSON {
	return principalJSON{ID: p.ExternalID, Email: p.Email, Name: p.Name, Role: string(p.Role)}
}

func auditEntryToAPI(e domain.AuditEntry) auditEntryJSON {
	return auditEntryJSON{
		ID:        e.ID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Status:    e.Status,
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	}
}

func healthCheckToAPI(c domain.HealthCheck) healthCheckJSON {
	return healthCheckJSON{
		TenantID:  c.TenantID,
		Status:    c.Status,
		Detail:    c.Detail,
		LatencyMS: c.LatencyMS,
		CheckedAt: c.CheckedAt,
	}
}
