package brands

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Repository persists brands.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error)
	Get(ctx context.Context, storeID, id string) (Brand, error)
	Create(ctx context.Context, brand Brand) error
	Update(ctx context.Context, brand Brand) error
	Delete(ctx context.Context, storeID, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectBrand = `SELECT b.id::text, b.store_id::text, b.name, b.slug, b.description, b.logo, b.is_active,
	(SELECT COUNT(*) FROM products p WHERE p.brand_id = b.id), b.created_at, b.updated_at FROM brands b`

func scanBrand(row pgx.Row) (Brand, error) {
	var b Brand
	err := row.Scan(&b.ID, &b.StoreID, &b.Name, &b.Slug, &b.Description, &b.Logo, &b.IsActive, &b.ProductCount, &b.CreatedAt, &b.UpdatedAt)
	return b, db.MapError(err)
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	var f db.Filter
	f.Add("b.store_id::text = %s", filters.StoreID)
	if filters.Search != "" {
		f.Add("(b.name ILIKE %s OR b.slug ILIKE %s)", db.Contains(filters.Search))
	}
	if filters.IsActive != nil {
		f.Add("b.is_active = %s", *filters.IsActive)
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM brands b`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	order := "b.name ASC"
	if filters.SortBy == "createdAt" {
		order = "b.created_at " + db.Direction(filters.SortDir)
	} else if filters.SortBy == "name" {
		order = "b.name " + db.Direction(filters.SortDir)
	}
	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectBrand+f.Where()+` ORDER BY `+order+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var brands []Brand
	for rows.Next() {
		b, err := scanBrand(rows)
		if err != nil {
			return nil, 0, err
		}
		brands = append(brands, b)
	}
	return brands, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, storeID, id string) (Brand, error) {
	return scanBrand(r.pool.QueryRow(ctx, selectBrand+` WHERE b.id::text = $1 AND b.store_id::text = $2`, id, storeID))
}

func (r *repository) Create(ctx context.Context, b Brand) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO brands (id, store_id, name, slug, description, logo, is_active, created_at, updated_at)
		VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.StoreID, b.Name, b.Slug, b.Description, b.Logo, b.IsActive, b.CreatedAt, b.UpdatedAt)
	return db.MapError(err)
}

func (r *repository) Update(ctx context.Context, b Brand) error {
	tag, err := r.pool.Exec(ctx, `UPDATE brands SET name = $3, slug = $4, description = $5, logo = $6, is_active = $7, updated_at = $8
		WHERE id::text = $1 AND store_id::text = $2`,
		b.ID, b.StoreID, b.Name, b.Slug, b.Description, b.Logo, b.IsActive, b.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, storeID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE id::text = $1 AND store_id::text = $2`, id, storeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
