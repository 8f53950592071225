package repository

import (
	"context"
	"database/sql"
	"time"

	"client-portal/internal/domain"
)

var _ domain.PrincipalRepository = (*PrincipalRepo)(nil)

// PrincipalRepo implements domain.PrincipalRepository using SQLite.
type PrincipalRepo struct {
	write *sql.DB
	read  *sql.DB
}

// NewPrincipalRepo creates a new PrincipalRepo over a write/read pool pair.
func NewPrincipalRepo(write, read *sql.DB) *PrincipalRepo {
	return &PrincipalRepo{write: write, read: read}
}

// Upsert inserts or updates the denormalized principal record keyed by its
// external id. Identity-provider webhooks are the only writers.
func (r *PrincipalRepo) Upsert(ctx context.Context, p *domain.Principal) (*domain.Principal, error) {
	now := time.Now().UTC()
	_, err := r.write.ExecContext(ctx, `
		INSERT INTO principals (external_id, email, name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (external_id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			role = excluded.role,
			updated_at = excluded.updated_at`,
		p.ExternalID, p.Email, p.Name, string(p.Role), now, now)
	if err != nil {
		return nil, mapDBError(err)
	}
	return r.GetByExternalID(ctx, p.ExternalID)
}

// GetByExternalID returns the principal with the given external id.
func (r *PrincipalRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Principal, error) {
	row := r.read.QueryRowContext(ctx, `
		SELECT external_id, email, name, role, created_at, updated_at
		FROM principals WHERE external_id = ?`, externalID)

	var p domain.Principal
	var role string
	if err := row.Scan(&p.ExternalID, &p.Email, &p.Name, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapDBError(err)
	}
	p.Role = domain.Role(role)
	return &p, nil
}

// List returns a paginated list of principals ordered by external id.
func (r *PrincipalRepo) List(ctx context.Context, page domain.PageRequest) ([]domain.Principal, int64, error) {
	var total int64
	if err := r.read.QueryRowContext(ctx, `SELECT COUNT(*) FROM principals`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.read.QueryContext(ctx, `
		SELECT external_id, email, name, role, created_at, updated_at
		FROM principals ORDER BY external_id LIMIT ? OFFSET ?`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var principals []domain.Principal
	for rows.Next() {
		var p domain.Principal
		var role string
		if err := rows.Scan(&p.ExternalID, &p.Email, &p.Name, &role, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		p.Role = domain.Role(role)
		principals = append(principals, p)
	}
	return principals, total, rows.Err()
}
