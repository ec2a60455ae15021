package roles

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectRole = `SELECT r.id::text, r.name, r.description, r.permissions, r.super_admin,
	(SELECT COUNT(*) FROM users u WHERE u.role_id = r.id), r.created_at, r.updated_at FROM roles r`

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.Permissions, &role.SuperAdmin, &role.UserCount, &role.CreatedAt, &role.UpdatedAt)
	return role, db.MapError(err)
}

// List returns roles ordered by name.
func (r *Repository) List(ctx context.Context, search string) ([]Role, error) {
	var f db.Filter
	if search != "" {
		f.Add("r.name ILIKE %s", db.Contains(search))
	}
	rows, err := r.pool.Query(ctx, selectRole+f.Where()+` ORDER BY r.name`, f.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	roles := []Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Get loads one role.
func (r *Repository) Get(ctx context.Context, id string) (Role, error) {
	return scanRole(r.pool.QueryRow(ctx, selectRole+` WHERE r.id::text = $1`, id))
}

// Create inserts a role.
func (r *Repository) Create(ctx context.Context, role Role) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO roles (id, name, description, permissions, super_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		role.ID, role.Name, role.Description, role.Permissions, role.SuperAdmin, role.CreatedAt, role.UpdatedAt)
	return db.MapError(err)
}

// Update writes a role.
func (r *Repository) Update(ctx context.Context, role Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET name = $2, description = $3, permissions = $4, super_admin = $5, updated_at = $6
		WHERE id::text = $1`, role.ID, role.Name, role.Description, role.Permissions, role.SuperAdmin, role.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a role.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id::text = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
