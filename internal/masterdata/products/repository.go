package products

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/inventory"
	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Repository persists products.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, storeID, id string) (Product, error)
	FindByBarcode(ctx context.Context, storeID, barcode string) (Product, error)
	LowStock(ctx context.Context, storeID string, limit int) ([]Product, error)
	// Create inserts the product and books its opening stock in the ledger.
	Create(ctx context.Context, product Product) error
	Update(ctx context.Context, product Product) error
	Delete(ctx context.Context, storeID, id string) error
	References(ctx context.Context, storeID, id string) (References, error)
	LinksExist(ctx context.Context, storeID, categoryID string, brandID *string) (category, brand bool, err error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const selectProduct = `SELECT p.id::text, p.store_id::text, p.sku, p.barcode, p.name, p.slug, p.description,
	p.category_id::text, COALESCE(c.name, ''), p.brand_id::text, COALESCE(b.name, ''),
	p.buying_price, p.selling_price, p.stock_level, p.min_stock_level, p.unit, p.images, p.is_active,
	p.created_at, p.updated_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN brands b ON b.id = p.brand_id`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.StoreID, &p.SKU, &p.Barcode, &p.Name, &p.Slug, &p.Description,
		&p.CategoryID, &p.CategoryName, &p.BrandID, &p.BrandName,
		&p.BuyingPrice, &p.SellingPrice, &p.StockLevel, &p.MinStockLevel, &p.Unit, &p.Images, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	return p, db.MapError(err)
}

func collect(rows pgx.Rows) ([]Product, error) {
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	var f db.Filter
	f.Add("p.store_id::text = %s", filters.StoreID)
	if filters.Search != "" {
		f.Add("(p.name ILIKE %s OR p.sku ILIKE %s OR p.barcode ILIKE %s)", db.Contains(filters.Search))
	}
	if filters.CategoryID != "" {
		f.Add("p.category_id::text = %s", filters.CategoryID)
	}
	if filters.BrandID != "" {
		f.Add("p.brand_id::text = %s", filters.BrandID)
	}
	if filters.IsActive != nil {
		f.Add("p.is_active = %s", *filters.IsActive)
	}
	if filters.LowStock {
		f.AddRaw("p.stock_level <= p.min_stock_level")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectProduct+f.Where()+` ORDER BY `+sortOrder(filters.SortBy, filters.SortDir)+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

func sortOrder(sortBy, sortDir string) string {
	dir := db.Direction(sortDir)
	switch sortBy {
	case "name":
		return "p.name " + dir
	case "sku":
		return "p.sku " + dir
	case "sellingPrice":
		return "p.selling_price " + dir
	case "stockLevel":
		return "p.stock_level " + dir
	case "createdAt":
		return "p.created_at " + dir
	default:
		return "p.name ASC"
	}
}

func (r *repository) Get(ctx context.Context, storeID, id string) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, selectProduct+` WHERE p.id::text = $1 AND p.store_id::text = $2`, id, storeID))
}

func (r *repository) FindByBarcode(ctx context.Context, storeID, barcode string) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, selectProduct+` WHERE p.barcode = $1 AND p.store_id::text = $2`, barcode, storeID))
}

func (r *repository) LowStock(ctx context.Context, storeID string, limit int) ([]Product, error) {
	rows, err := r.pool.Query(ctx, selectProduct+` WHERE p.store_id::text = $1 AND p.is_active
		AND p.stock_level <= p.min_stock_level
		ORDER BY p.stock_level - p.min_stock_level, p.name LIMIT $2`, storeID, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *repository) Create(ctx context.Context, p Product) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `INSERT INTO products (id, store_id, sku, barcode, name, slug, description, category_id, brand_id,
			buying_price, selling_price, stock_level, min_stock_level, unit, images, is_active, created_at, updated_at)
			VALUES ($1, $2::uuid, $3, $4, $5, $6, $7, $8::uuid, $9::uuid, $10, $11, 0, $12, $13, $14, $15, $16, $17)`,
			p.ID, p.StoreID, p.SKU, p.Barcode, p.Name, p.Slug, p.Description, p.CategoryID, p.BrandID,
			p.BuyingPrice, p.SellingPrice, p.MinStockLevel, p.Unit, p.Images, p.IsActive, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return db.MapError(err)
		}
		if p.StockLevel == 0 {
			return nil
		}
		_, err = inventory.NewTxLedger(tx).Adjust(ctx, inventory.Adjustment{
			StoreID:   p.StoreID,
			ProductID: p.ID,
			Delta:     p.StockLevel,
			RefType:   inventory.RefOpening,
			RefID:     p.ID,
			Note:      "opening stock",
			CreatedBy: shared.ActorID(ctx),
		})
		return err
	})
}

func (r *repository) Update(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET sku = $3, barcode = $4, name = $5, slug = $6, description = $7,
		category_id = $8::uuid, brand_id = $9::uuid, buying_price = $10, selling_price = $11, min_stock_level = $12,
		unit = $13, images = $14, is_active = $15, updated_at = $16
		WHERE id::text = $1 AND store_id::text = $2`,
		p.ID, p.StoreID, p.SKU, p.Barcode, p.Name, p.Slug, p.Description, p.CategoryID, p.BrandID,
		p.BuyingPrice, p.SellingPrice, p.MinStockLevel, p.Unit, p.Images, p.IsActive, p.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, storeID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id::text = $1 AND store_id::text = $2`, id, storeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// References counts purchase orders and sales whose embedded items name the product.
func (r *repository) References(ctx context.Context, storeID, id string) (References, error) {
	var refs References
	err := r.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM purchase_orders WHERE store_id::text = $2 AND items @> jsonb_build_array(jsonb_build_object('productId', $1::text))),
		(SELECT COUNT(*) FROM sales WHERE store_id::text = $2 AND items @> jsonb_build_array(jsonb_build_object('productId', $1::text)))`,
		id, storeID).Scan(&refs.PurchaseOrders, &refs.Sales)
	if err != nil {
		return References{}, fmt.Errorf("count product references: %w", err)
	}
	return refs, nil
}

func (r *repository) LinksExist(ctx context.Context, storeID, categoryID string, brandID *string) (bool, bool, error) {
	var category, brand bool
	err := r.pool.QueryRow(ctx, `SELECT
		EXISTS (SELECT 1 FROM categories WHERE id::text = $1 AND store_id::text = $3),
		($2::text IS NULL OR EXISTS (SELECT 1 FROM brands WHERE id::text = $2 AND store_id::text = $3))`,
		categoryID, brandID, storeID).Scan(&category, &brand)
	return category, brand, err
}
