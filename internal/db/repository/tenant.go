package repository

import (
	"context"
	"database/sql"
	"time"

	"client-portal/internal/domain"
)

var _ domain.TenantRepository = (*TenantRepo)(nil)

// TenantRepo implements domain.TenantRepository using SQLite.
type TenantRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewTenantRepo creates a new TenantRepo over a write/read pool pair.
func NewTenantRepo(write, read *sql.DB) *TenantRepo {
	return &TenantRepo{write: write, read: read}
}

const tenantColumns = `id, name, archived, billing_customer_id, analytics_site_id, uptime_monitor_id, created_at, updated_at`

func scanTenant(row interface{ Scan(...any) error }) (*domain.Tenant, error) {
	var t domain.Tenant
	var archived int64
	var billing, analytics, uptime sql.NullString
	if err := row.Scan(&t.ID, &t.Name, &archived, &billing, &analytics, &uptime, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Archived = archived != 0
	t.BillingCustomerID = strPtr(billing)
	t.AnalyticsSiteID = strPtr(analytics)
	t.UptimeMonitorID = strPtr(uptime)
	return &t, nil
}

// Create inserts a new tenant.
func (r *TenantRepo) Create(ctx context.Context, t *domain.Tenant) (*domain.Tenant, error) {
	now := time.Now().UTC()
	_, err := r.write.ExecContext(ctx, `
		INSERT INTO tenants (id, name, archived, billing_customer_id, analytics_site_id, uptime_monitor_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, boolToInt(t.Archived),
		nullStr(t.BillingCustomerID), nullStr(t.AnalyticsSiteID), nullStr(t.UptimeMonitorID),
		now, now)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByID(ctx, t.ID)
}

// GetByID returns the tenant with the given id.
func (r *TenantRepo) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	row := r.read.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id)
	t, err := scanTenant(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return t, nil
}

// List returns a paginated list of tenants ordered by name. Archived tenants
// are excluded unless includeArchived is set.
func (r *TenantRepo) List(ctx context.Context, includeArchived bool, page domain.PageRequest) ([]domain.Tenant, int64, error) {
	where := `WHERE archived = 0`
	if includeArchived {
		where = ``
	}

	var total int64
	if err := r.read.QueryRowContext(ctx, `SELECT COUNT(*) FROM tenants `+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.read.QueryContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants `+where+` ORDER BY name, id LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, *t)
	}
	return tenants, total, rows.Err()
}

// SetArchived flips the soft archive flag.
func (r *TenantRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	res, err := r.write.ExecContext(ctx,
		`UPDATE tenants SET archived = ?, updated_at = ? WHERE id = ?`,
		boolToInt(archived), time.Now().UTC(), id)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "tenant %s", id)
}

// UpdateLinks replaces the external SaaS references.
func (r *TenantRepo) UpdateLinks(ctx context.Context, id string, links domain.TenantLinks) error {
	res, err := r.write.ExecContext(ctx, `
		UPDATE tenants
		SET billing_customer_id = ?, analytics_site_id = ?, uptime_monitor_id = ?, updated_at = ?
		WHERE id = ?`,
		nullStr(links.BillingCustomerID), nullStr(links.AnalyticsSiteID), nullStr(links.UptimeMonitorID),
		time.Now().UTC(), id)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "tenant %s", id)
}

// Rename updates the tenant display name.
func (r *TenantRepo) Rename(ctx context.Context, id, name string) error {
	res, err := r.write.ExecContext(ctx,
		`UPDATE tenants SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "tenant %s", id)
}

// Delete removes the tenant. Grants cascade at the schema level.
func (r *TenantRepo) Delete(ctx context.Context, id string) error {
	res, err := r.write.ExecContext(ctx, `DELETE FROM tenants WHERE id = ?`, id)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "tenant %s", id)
}

// ListMonitored returns all non-archived tenants carrying an uptime-monitor
// reference, in stable id order for the probe scheduler.
func (r *TenantRepo) ListMonitored(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := r.read.QueryContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants
		 WHERE archived = 0 AND uptime_monitor_id IS NOT NULL
		 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}
