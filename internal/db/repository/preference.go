package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"client-portal/internal/domain"
)

var _ domain.PreferenceRepository = (*PreferenceRepo)(nil)

// PreferenceRepo implements domain.PreferenceRepository using SQLite.
// Writes are last-write-wins; the value is advisory only and callers must
// re-validate it against live grants.
type PreferenceRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewPreferenceRepo creates a new PreferenceRepo over a write/read pool pair.
func NewPreferenceRepo(write, read *sql.DB) *PreferenceRepo {
	return &PreferenceRepo{write: write, read: read}
}

// Get returns the stored tenant preference, or "" when unset. An unset
// preference is not an error.
func (r *PreferenceRepo) Get(ctx context.Context, principalID string) (string, error) {
	var tenantID string
	err := r.read.QueryRowContext(ctx,
		`SELECT tenant_id FROM active_preferences WHERE principal_id = ?`,
		principalID).Scan(&tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return tenantID, nil
}

// Set stores the preference, replacing any previous value.
func (r *PreferenceRepo) Set(ctx context.Context, principalID, tenantID string) error {
	_, err := r.write.ExecContext(ctx, `
		INSERT INTO active_preferences (principal_id, tenant_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (principal_id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			updated_at = excluded.updated_at`,
		principalID, tenantID, time.Now().UTC())
	return mapDBError(err)
}

// Clear removes the stored preference. Clearing an unset preference is a no-op.
func (r *PreferenceRepo) Clear(ctx context.Context, principalID string) error {
	_, err := r.write.ExecContext(ctx,
		`DELETE FROM active_preferences WHERE principal_id = ?`, principalID)
	return mapDBError(err)
}
