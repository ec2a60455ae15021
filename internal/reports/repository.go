package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the report queries.
type Repository interface {
	SalesSummary(ctx context.Context, storeID string, from, to time.Time) (SalesSummary, error)
	TopProducts(ctx context.Context, storeID string, from, to time.Time, limit int) ([]ProductSales, error)
	LowStock(ctx context.Context, storeID string, limit int) ([]LowStockItem, int, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) SalesSummary(ctx context.Context, storeID string, from, to time.Time) (SalesSummary, error) {
	out := SalesSummary{From: from, To: to}
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(total_amount), 0), COALESCE(SUM(profit_amount), 0),
		COALESCE(SUM(discount_amount), 0), COALESCE(SUM(tax_amount), 0), COALESCE(SUM(paid_amount), 0)
		FROM sales WHERE store_id::text = $1 AND created_at >= $2 AND created_at < $3`,
		storeID, from, to).Scan(&out.Count, &out.Revenue, &out.Profit, &out.Discount, &out.Tax, &out.Paid)
	return out, err
}

func (r *repository) TopProducts(ctx context.Context, storeID string, from, to time.Time, limit int) ([]ProductSales, error) {
	rows, err := r.pool.Query(ctx, `SELECT item->>'productId', MAX(item->>'productName'),
		SUM((item->>'quantity')::int), SUM((item->>'totalAmount')::numeric), SUM((item->>'profitAmount')::numeric)
		FROM sales s CROSS JOIN LATERAL jsonb_array_elements(s.items) AS item
		WHERE s.store_id::text = $1 AND s.created_at >= $2 AND s.created_at < $3 AND item ? 'productId'
		GROUP BY 1
		ORDER BY 3 DESC, 4 DESC
		LIMIT $4`, storeID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductSales
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Quantity, &p.Revenue, &p.Profit); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repository) LowStock(ctx context.Context, storeID string, limit int) ([]LowStockItem, int, error) {
	const where = ` FROM products WHERE store_id::text = $1 AND is_active AND stock_level <= min_stock_level`
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+where, storeID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT id::text, name, sku, stock_level, min_stock_level`+where+
		` ORDER BY stock_level - min_stock_level, name LIMIT $2`, storeID, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []LowStockItem
	for rows.Next() {
		var item LowStockItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.SKU, &item.StockLevel, &item.MinStockLevel); err != nil {
			return nil, 0, err
		}
		out = append(out, item)
	}
	return out, total, rows.Err()
}
