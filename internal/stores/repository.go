package stores

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Repository persists stores. A nil scope lists every store.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters, scope []string) ([]Store, int, error)
	Get(ctx context.Context, id string) (Store, error)
	Create(ctx context.Context, store Store) error
	Update(ctx context.Context, store Store) error
	Delete(ctx context.Context, id string) error
	References(ctx context.Context, id string) (References, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectStore = `SELECT id::text, code, name, address, phone, email, currency, tax_rate, is_active, created_at, updated_at FROM stores`

func scanStore(row pgx.Row) (Store, error) {
	var s Store
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Address, &s.Phone, &s.Email, &s.Currency, &s.TaxRate, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	return s, db.MapError(err)
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters, scope []string) ([]Store, int, error) {
	var f db.Filter
	if scope != nil {
		f.Add("id::text = ANY(%s)", scope)
	}
	if filters.Search != "" {
		f.Add("(name ILIKE %s OR code ILIKE %s)", db.Contains(filters.Search))
	}
	if filters.IsActive != nil {
		f.Add("is_active = %s", *filters.IsActive)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stores`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectStore+f.Where()+` ORDER BY `+sortOrder(filters.SortBy, filters.SortDir)+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var stores []Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, 0, err
		}
		stores = append(stores, s)
	}
	return stores, total, rows.Err()
}

func sortOrder(sortBy, sortDir string) string {
	dir := db.Direction(sortDir)
	switch sortBy {
	case "name":
		return "name " + dir
	case "code":
		return "code " + dir
	case "createdAt":
		return "created_at " + dir
	default:
		return "name ASC"
	}
}

func (r *repository) Get(ctx context.Context, id string) (Store, error) {
	return scanStore(r.pool.QueryRow(ctx, selectStore+` WHERE id::text = $1`, id))
}

func (r *repository) Create(ctx context.Context, s Store) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO stores (id, code, name, address, phone, email, currency, tax_rate, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.Code, s.Name, s.Address, s.Phone, s.Email, s.Currency, s.TaxRate, s.IsActive, s.CreatedAt, s.UpdatedAt)
	return db.MapError(err)
}

func (r *repository) Update(ctx context.Context, s Store) error {
	tag, err := r.pool.Exec(ctx, `UPDATE stores SET code = $2, name = $3, address = $4, phone = $5, email = $6,
		currency = $7, tax_rate = $8, is_active = $9, updated_at = $10 WHERE id::text = $1`,
		s.ID, s.Code, s.Name, s.Address, s.Phone, s.Email, s.Currency, s.TaxRate, s.IsActive, s.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stores WHERE id::text = $1`, id)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) References(ctx context.Context, id string) (References, error) {
	var refs References
	err := r.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM products WHERE store_id::text = $1),
		(SELECT COUNT(*) FROM sales WHERE store_id::text = $1)`, id).Scan(&refs.Products, &refs.Sales)
	return refs, err
}
