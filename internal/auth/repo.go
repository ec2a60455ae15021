package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/db"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByLogin(ctx context.Context, login string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	StoresForUser(ctx context.Context, userID string, all bool) ([]StoreRef, error)
	TouchLogin(ctx context.Context, userID string, at time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const selectAccount = `SELECT u.id::text, u.username, u.email, u.full_name, u.password_hash, u.is_active,
	r.id::text, r.name, r.permissions, r.super_admin
	FROM users u JOIN roles r ON r.id = u.role_id`

func (r *PGRepository) scan(ctx context.Context, where string, arg string) (*Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, selectAccount+where, arg).Scan(&a.ID, &a.Username, &a.Email, &a.FullName,
		&a.PasswordHash, &a.IsActive, &a.RoleID, &a.RoleName, &a.Permissions, &a.SuperAdmin)
	if err != nil {
		return nil, db.MapError(err)
	}
	return &a, nil
}

// FindByLogin fetches a user by username or email, case-insensitively.
func (r *PGRepository) FindByLogin(ctx context.Context, login string) (*Account, error) {
	return r.scan(ctx, ` WHERE lower(u.username) = lower($1) OR lower(u.email) = lower($1)`, login)
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Account, error) {
	return r.scan(ctx, ` WHERE u.id::text = $1`, id)
}

// StoresForUser lists active stores linked to the user, or every active
// store when all is set.
func (r *PGRepository) StoresForUser(ctx context.Context, userID string, all bool) ([]StoreRef, error) {
	query := `SELECT s.id::text, s.name, s.code FROM stores s
		JOIN user_stores us ON us.store_id = s.id
		WHERE us.user_id::text = $1 AND s.is_active ORDER BY s.name`
	args := []any{userID}
	if all {
		query = `SELECT id::text, name, code FROM stores WHERE is_active ORDER BY name`
		args = nil
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stores := []StoreRef{}
	for rows.Next() {
		var s StoreRef
		if err := rows.Scan(&s.ID, &s.Name, &s.Code); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

// TouchLogin stamps the last successful login.
func (r *PGRepository) TouchLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id::text = $1`, userID, at)
	return err
}

var _ Repository = (*PGRepository)(nil)
