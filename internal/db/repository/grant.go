package repository

import (
	"context"
	"database/sql"
	"time"

	"client-portal/internal/domain"
)

var _ domain.GrantRepository = (*GrantRepo)(nil)

// GrantRepo implements domain.GrantRepository using SQLite. Mutations go
// through the single-connection write pool; lookups and listings use the
// read pool so grant resolution never queues behind writes.
type GrantRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewGrantRepo creates a new GrantRepo over a write/read pool pair. Callers
// with a single handle (CLI tooling) pass it twice.
func NewGrantRepo(write, read *sql.DB) *GrantRepo {
	return &GrantRepo{write: write, read: read}
}

const grantColumns = `id, tenant_id, principal_id, active, perm_billing, perm_analytics, perm_uptime, created_at, updated_at`

func scanGrant(row interface{ Scan(...any) error }) (*domain.AccessGrant, error) {
	var g domain.AccessGrant
	var active, billing, analytics, uptime int64
	if err := row.Scan(&g.ID, &g.TenantID, &g.PrincipalID, &active, &billing, &analytics, &uptime, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Active = active != 0
	g.Permissions = domain.PermissionBundle{
		Billing:   billing != 0,
		Analytics: analytics != 0,
		Uptime:    uptime != 0,
	}
	return &g, nil
}

// Create inserts a new access grant. The UNIQUE (tenant_id, principal_id)
// constraint enforces the at-most-one-grant-per-pair invariant.
func (r *GrantRepo) Create(ctx context.Context, g *domain.AccessGrant) (*domain.AccessGrant, error) {
	now := time.Now().UTC()
	_, err := r.write.ExecContext(ctx, `
		INSERT INTO access_grants (id, tenant_id, principal_id, active, perm_billing, perm_analytics, perm_uptime, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.TenantID, g.PrincipalID, boolToInt(g.Active),
		boolToInt(g.Permissions.Billing), boolToInt(g.Permissions.Analytics), boolToInt(g.Permissions.Uptime),
		now, now)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.Get(ctx, g.TenantID, g.PrincipalID)
}

// Get returns the grant for exactly the (tenant, principal) pair.
func (r *GrantRepo) Get(ctx context.Context, tenantID, principalID string) (*domain.AccessGrant, error) {
	row := r.read.QueryRowContext(ctx,
		`SELECT `+grantColumns+` FROM access_grants WHERE tenant_id = ? AND principal_id = ?`,
		tenantID, principalID)
	g, err := scanGrant(row)
	if err != nil {
		return nil, mapDBError(err)
	}
	return g, nil
}

// ListActiveForPrincipal returns the principal's active grants only, in a
// deterministic order: oldest grant first, tenant id as tie-break. The
// resolver's default active-tenant selection depends on this ordering.
func (r *GrantRepo) ListActiveForPrincipal(ctx context.Context, principalID string) ([]domain.AccessGrant, error) {
	rows, err := r.read.QueryContext(ctx, `
		SELECT `+grantColumns+` FROM access_grants
		WHERE principal_id = ? AND active = 1
		ORDER BY created_at ASC, tenant_id ASC`, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGrants(rows)
}

// ListForTenant returns all grants for a tenant, active or not.
func (r *GrantRepo) ListForTenant(ctx context.Context, tenantID string) ([]domain.AccessGrant, error) {
	rows, err := r.read.QueryContext(ctx, `
		SELECT `+grantColumns+` FROM access_grants
		WHERE tenant_id = ?
		ORDER BY created_at ASC, principal_id ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectGrants(rows)
}

// HasActiveGrant reports whether an active grant exists for exactly the
// (principal, tenant) pair. Absence is false, never an error.
func (r *GrantRepo) HasActiveGrant(ctx context.Context, principalID, tenantID string) (bool, error) {
	var n int64
	err := r.read.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM access_grants
		WHERE principal_id = ? AND tenant_id = ? AND active = 1`,
		principalID, tenantID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetActive toggles the activation flag of an existing grant.
func (r *GrantRepo) SetActive(ctx context.Context, tenantID, principalID string, active bool) error {
	res, err := r.write.ExecContext(ctx, `
		UPDATE access_grants SET active = ?, updated_at = ?
		WHERE tenant_id = ? AND principal_id = ?`,
		boolToInt(active), time.Now().UTC(), tenantID, principalID)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "grant (%s, %s)", tenantID, principalID)
}

// UpdatePermissions replaces the permission bundle of an existing grant.
func (r *GrantRepo) UpdatePermissions(ctx context.Context, tenantID, principalID string, perms domain.PermissionBundle) error {
	res, err := r.write.ExecContext(ctx, `
		UPDATE access_grants
		SET perm_billing = ?, perm_analytics = ?, perm_uptime = ?, updated_at = ?
		WHERE tenant_id = ? AND principal_id = ?`,
		boolToInt(perms.Billing), boolToInt(perms.Analytics), boolToInt(perms.Uptime),
		time.Now().UTC(), tenantID, principalID)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "grant (%s, %s)", tenantID, principalID)
}

// Delete removes a grant by compound key.
func (r *GrantRepo) Delete(ctx context.Context, tenantID, principalID string) error {
	res, err := r.write.ExecContext(ctx,
		`DELETE FROM access_grants WHERE tenant_id = ? AND principal_id = ?`,
		tenantID, principalID)
	if err != nil {
		return mapDBError(err)
	}
	return requireRow(res, "grant (%s, %s)", tenantID, principalID)
}

func collectGrants(rows *sql.Rows) ([]domain.AccessGrant, error) {
	var grants []domain.AccessGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, *g)
	}
	return grants, rows.Err()
}
