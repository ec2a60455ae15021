package suppliers

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Repository persists suppliers.
type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error)
	Get(ctx context.Context, storeID, id string) (Supplier, error)
	Create(ctx context.Context, supplier Supplier) error
	Update(ctx context.Context, supplier Supplier) error
	Delete(ctx context.Context, storeID, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectSupplier = `SELECT s.id::text, s.store_id::text, s.name, s.contact_person, s.phone, s.email, s.address,
	s.is_active, (SELECT COUNT(*) FROM purchase_orders p WHERE p.supplier_id = s.id), s.created_at, s.updated_at
	FROM suppliers s`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.StoreID, &s.Name, &s.ContactPerson, &s.Phone, &s.Email, &s.Address,
		&s.IsActive, &s.PurchaseOrders, &s.CreatedAt, &s.UpdatedAt)
	return s, db.MapError(err)
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	var f db.Filter
	f.Add("s.store_id::text = %s", filters.StoreID)
	if filters.Search != "" {
		f.Add("(s.name ILIKE %s OR s.contact_person ILIKE %s OR s.email ILIKE %s OR s.phone ILIKE %s)", db.Contains(filters.Search))
	}
	if filters.IsActive != nil {
		f.Add("s.is_active = %s", *filters.IsActive)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM suppliers s`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectSupplier+f.Where()+" ORDER BY "+sortOrder(filters.SortBy, filters.SortDir)+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, storeID, id string) (Supplier, error) {
	return scanSupplier(r.pool.QueryRow(ctx, selectSupplier+` WHERE s.id::text = $1 AND s.store_id::text = $2`, id, storeID))
}

func (r *repository) Create(ctx context.Context, s Supplier) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO suppliers
		(id, store_id, name, contact_person, phone, email, address, is_active, created_at, updated_at)
		VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.StoreID, s.Name, s.ContactPerson, s.Phone, s.Email, s.Address, s.IsActive, s.CreatedAt, s.UpdatedAt)
	return db.MapError(err)
}

func (r *repository) Update(ctx context.Context, s Supplier) error {
	tag, err := r.pool.Exec(ctx, `UPDATE suppliers SET name = $3, contact_person = $4, phone = $5, email = $6,
		address = $7, is_active = $8, updated_at = $9 WHERE id::text = $1 AND store_id::text = $2`,
		s.ID, s.StoreID, s.Name, s.ContactPerson, s.Phone, s.Email, s.Address, s.IsActive, s.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, storeID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id::text = $1 AND store_id::text = $2`, id, storeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := db.Direction(sortDir)
	switch sortBy {
	case "name":
		return "s.name " + dir
	case "contactPerson":
		return "s.contact_person " + dir
	case "createdAt":
		return "s.created_at " + dir
	default:
		return "s.name ASC"
	}
}
