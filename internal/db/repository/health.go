package repository

import (
	"context"
	"database/sql"
	"time"

	"client-portal/internal/domain"
)

var _ domain.HealthRepository = (*HealthRepo)(nil)

// HealthRepo implements domain.HealthRepository using SQLite.
type HealthRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewHealthRepo creates a new HealthRepo over a write/read pool pair.
func NewHealthRepo(write, read *sql.DB) *HealthRepo {
	return &HealthRepo{write: write, read: read}
}

// Insert appends a probe outcome for a tenant.
func (r *HealthRepo) Insert(ctx context.Context, c *domain.HealthCheck) error {
	checkedAt := c.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now().UTC()
	}
	_, err := r.write.ExecContext(ctx, `
		INSERT INTO health_checks (tenant_id, status, detail, latency_ms, checked_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.TenantID, c.Status, c.Detail, c.LatencyMS, checkedAt)
	return mapDBError(err)
}

// Latest returns the most recent check for a tenant.
func (r *HealthRepo) Latest(ctx context.Context, tenantID string) (*domain.HealthCheck, error) {
	row := r.read.QueryRowContext(ctx, `
		SELECT id, tenant_id, status, detail, latency_ms, checked_at
		FROM health_checks WHERE tenant_id = ?
		ORDER BY checked_at DESC, id DESC LIMIT 1`, tenantID)

	var c domain.HealthCheck
	if err := row.Scan(&c.ID, &c.TenantID, &c.Status, &c.Detail, &c.LatencyMS, &c.CheckedAt); err != nil {
		return nil, mapDBError(err)
	}
	return &c, nil
}

// ListForTenant returns checks for a tenant since the given time, oldest first.
func (r *HealthRepo) ListForTenant(ctx context.Context, tenantID string, since time.Time) ([]domain.HealthCheck, error) {
	rows, err := r.read.QueryContext(ctx, `
		SELECT id, tenant_id, status, detail, latency_ms, checked_at
		FROM health_checks WHERE tenant_id = ? AND checked_at >= ?
		ORDER BY checked_at ASC, id ASC`, tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checks []domain.HealthCheck
	for rows.Next() {
		var c domain.HealthCheck
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Status, &c.Detail, &c.LatencyMS, &c.CheckedAt); err != nil {
			return nil, err
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}
