package categories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Repository persists categories.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Category, int, error)
	Get(ctx context.Context, storeID, id string) (Category, error)
	ParentOf(ctx context.Context, storeID, id string) (*string, error)
	Create(ctx context.Context, category Category) error
	Update(ctx context.Context, category Category) error
	Delete(ctx context.Context, storeID, id string) error
	References(ctx context.Context, storeID, id string) (References, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectCategory = `SELECT c.id::text, c.store_id::text, c.name, c.slug, c.description, c.parent_id::text,
	COALESCE(p.name, ''), c.is_active, (SELECT COUNT(*) FROM products pr WHERE pr.category_id = c.id),
	c.created_at, c.updated_at
	FROM categories c LEFT JOIN categories p ON p.id = c.parent_id`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.StoreID, &c.Name, &c.Slug, &c.Description, &c.ParentID, &c.ParentName,
		&c.IsActive, &c.ProductCount, &c.CreatedAt, &c.UpdatedAt)
	return c, db.MapError(err)
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Category, int, error) {
	var f db.Filter
	f.Add("c.store_id::text = %s", filters.StoreID)
	if filters.Search != "" {
		f.Add("(c.name ILIKE %s OR c.slug ILIKE %s)", db.Contains(filters.Search))
	}
	if filters.ParentID != nil {
		f.Add("c.parent_id::text = %s", *filters.ParentID)
	} else if filters.RootOnly {
		f.AddRaw("c.parent_id IS NULL")
	}
	if filters.IsActive != nil {
		f.Add("c.is_active = %s", *filters.IsActive)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories c`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectCategory+f.Where()+` ORDER BY `+sortOrder(filters.SortBy, filters.SortDir)+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, err
		}
		categories = append(categories, c)
	}
	return categories, total, rows.Err()
}

func sortOrder(sortBy, sortDir string) string {
	dir := db.Direction(sortDir)
	switch sortBy {
	case "name":
		return "c.name " + dir
	case "createdAt":
		return "c.created_at " + dir
	default:
		return "c.name ASC"
	}
}

func (r *repository) Get(ctx context.Context, storeID, id string) (Category, error) {
	return scanCategory(r.pool.QueryRow(ctx, selectCategory+` WHERE c.id::text = $1 AND c.store_id::text = $2`, id, storeID))
}

func (r *repository) ParentOf(ctx context.Context, storeID, id string) (*string, error) {
	var parent *string
	err := r.pool.QueryRow(ctx, `SELECT parent_id::text FROM categories WHERE id::text = $1 AND store_id::text = $2`, id, storeID).Scan(&parent)
	if err != nil {
		return nil, db.MapError(err)
	}
	return parent, nil
}

func (r *repository) Create(ctx context.Context, c Category) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO categories (id, store_id, name, slug, description, parent_id, is_active, created_at, updated_at)
		VALUES ($1, $2::uuid, $3, $4, $5, $6::uuid, $7, $8, $9)`,
		c.ID, c.StoreID, c.Name, c.Slug, c.Description, c.ParentID, c.IsActive, c.CreatedAt, c.UpdatedAt)
	return db.MapError(err)
}

func (r *repository) Update(ctx context.Context, c Category) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categories SET name = $3, slug = $4, description = $5, parent_id = $6::uuid,
		is_active = $7, updated_at = $8 WHERE id::text = $1 AND store_id::text = $2`,
		c.ID, c.StoreID, c.Name, c.Slug, c.Description, c.ParentID, c.IsActive, c.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, storeID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id::text = $1 AND store_id::text = $2`, id, storeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) References(ctx context.Context, storeID, id string) (References, error) {
	var refs References
	err := r.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM categories WHERE parent_id::text = $1 AND store_id::text = $2),
		(SELECT COUNT(*) FROM products WHERE category_id::text = $1 AND store_id::text = $2)`, id, storeID).
		Scan(&refs.Children, &refs.Products)
	return refs, err
}
