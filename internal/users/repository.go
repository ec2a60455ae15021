package users

import (
	"context"
	"fmt"

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

const selectUser = `SELECT u.id::text, u.username, u.email, u.full_name, u.role_id::text, COALESCE(r.name, ''),
	u.is_active, u.last_login_at, u.created_at, u.updated_at,
	COALESCE((SELECT array_agg(us.store_id::text ORDER BY us.created_at) FROM user_stores us WHERE us.user_id = u.id), '{}')
	FROM users u LEFT JOIN roles r ON r.id = u.role_id`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.RoleID, &u.RoleName, &u.IsActive,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &u.StoreIDs)
	return u, db.MapError(err)
}

// List returns users filtered and paged.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	var f db.Filter
	if filters.Search != "" {
		f.Add("(u.username ILIKE %s OR u.email ILIKE %s OR u.full_name ILIKE %s)", db.Contains(filters.Search))
	}
	if filters.RoleID != "" {
		f.Add("u.role_id::text = %s", filters.RoleID)
	}
	if filters.StoreID != "" {
		f.Add("EXISTS (SELECT 1 FROM user_stores us WHERE us.user_id = u.id AND us.store_id::text = %s)", filters.StoreID)
	}
	if filters.IsActive != nil {
		f.Add("u.is_active = %s", *filters.IsActive)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users u`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectUser+f.Where()+` ORDER BY u.username`+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Get loads one user with its store links.
func (r *Repository) Get(ctx context.Context, id string) (User, error) {
	return scanUser(r.pool.QueryRow(ctx, selectUser+` WHERE u.id::text = $1`, id))
}

// Create inserts the user and its store links in one transaction.
func (r *Repository) Create(ctx context.Context, u User, passwordHash string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO users (id, username, email, full_name, password_hash, role_id, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6::uuid, $7, $8, $9)`,
			u.ID, u.Username, u.Email, u.FullName, passwordHash, u.RoleID, u.IsActive, u.CreatedAt, u.UpdatedAt)
		if err != nil {
			return db.MapError(err)
		}
		return replaceStores(ctx, tx, u.ID, u.StoreIDs)
	})
}

// Update writes the editable fields. An empty passwordHash keeps the stored hash.
func (r *Repository) Update(ctx context.Context, u User, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET username = $2, email = $3, full_name = $4, role_id = $5::uuid,
		is_active = $6, password_hash = COALESCE(NULLIF($7, ''), password_hash), updated_at = $8
		WHERE id::text = $1`,
		u.ID, u.Username, u.Email, u.FullName, u.RoleID, u.IsActive, passwordHash, u.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a user; store links cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id::text = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// RoleExists reports whether roleID names a role.
func (r *Repository) RoleExists(ctx context.Context, roleID string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM roles WHERE id::text = $1)`, roleID).Scan(&ok)
	return ok, err
}

// SetStores replaces the user's store links.
func (r *Repository) SetStores(ctx context.Context, userID string, storeIDs []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id::text = $1)`, userID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return shared.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM user_stores WHERE user_id::text = $1`, userID); err != nil {
			return err
		}
		return replaceStores(ctx, tx, userID, storeIDs)
	})
}

func replaceStores(ctx context.Context, tx pgx.Tx, userID string, storeIDs []string) error {
	if len(storeIDs) == 0 {
		return nil
	}
	var found int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM stores WHERE id::text = ANY($1)`, storeIDs).Scan(&found); err != nil {
		return err
	}
	if found != len(storeIDs) {
		return fmt.Errorf("%w: %d of %d stores do not exist", shared.ErrValidation, len(storeIDs)-found, len(storeIDs))
	}
	_, err := tx.Exec(ctx, `INSERT INTO user_stores (user_id, store_id)
		SELECT $1::uuid, s::uuid FROM unnest($2::text[]) AS s`, userID, storeIDs)
	return db.MapError(err)
}
