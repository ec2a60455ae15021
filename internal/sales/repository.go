package sales

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/inventory"
	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Repository persists sales in PostgreSQL. Items and payment history are
// embedded JSONB arrays.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a read-committed transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const selectSale = `SELECT id::text, store_id::text, invoice_number, COALESCE(cashier_id::text, ''),
	customer_name, customer_phone, items, subtotal, discount_amount, tax_amount, total_amount,
	paid_amount, change_amount, payment_status, payment_method, profit_amount, payment_history, notes,
	created_at, updated_at
	FROM sales`

func scanSale(row pgx.Row) (Sale, error) {
	var (
		sale          Sale
		paymentStatus string
		items         []byte
		history       []byte
	)
	err := row.Scan(&sale.ID, &sale.StoreID, &sale.InvoiceNumber, &sale.CashierID, &sale.CustomerName,
		&sale.CustomerPhone, &items, &sale.Subtotal, &sale.DiscountAmount, &sale.TaxAmount, &sale.TotalAmount,
		&sale.PaidAmount, &sale.ChangeAmount, &paymentStatus, &sale.PaymentMethod, &sale.ProfitAmount, &history, &sale.Notes,
		&sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return Sale{}, db.MapError(err)
	}
	sale.PaymentStatus = shared.PaymentStatus(paymentStatus)
	if err := json.Unmarshal(items, &sale.Items); err != nil {
		return Sale{}, fmt.Errorf("sales: decode items of %s: %w", sale.ID, err)
	}
	if err := json.Unmarshal(history, &sale.PaymentHistory); err != nil {
		return Sale{}, fmt.Errorf("sales: decode payments of %s: %w", sale.ID, err)
	}
	return sale, nil
}

// Get loads one sale.
func (r *Repository) Get(ctx context.Context, storeID, id string) (Sale, error) {
	return scanSale(r.pool.QueryRow(ctx, selectSale+` WHERE id::text = $1 AND store_id::text = $2`, id, storeID))
}

// List returns sales filtered and paged.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Sale, int, error) {
	var f db.Filter
	f.Add("store_id::text = %s", filters.StoreID)
	if filters.CashierID != "" {
		f.Add("cashier_id::text = %s", filters.CashierID)
	}
	if filters.PaymentStatus != "" {
		f.Add("payment_status = %s", string(filters.PaymentStatus))
	}
	if filters.Search != "" {
		f.Add("(invoice_number ILIKE %s OR customer_name ILIKE %s OR customer_phone ILIKE %s)", db.Contains(filters.Search))
	}
	if !filters.From.IsZero() {
		f.Add("created_at >= %s", filters.From)
	}
	if !filters.To.IsZero() {
		f.Add("created_at < %s", filters.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectSale+f.Where()+` ORDER BY `+sortOrder(filters.SortBy, filters.SortDir)+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, sale)
	}
	return out, total, rows.Err()
}

// sortOrder returns a safe ORDER BY clause for sale listings.
func sortOrder(sortBy, sortDir string) string {
	dir := db.Direction(sortDir)
	switch sortBy {
	case "invoiceNumber":
		return "invoice_number " + dir
	case "totalAmount":
		return "total_amount " + dir
	case "profitAmount":
		return "profit_amount " + dir
	case "createdAt":
		return "created_at " + dir
	default:
		return "created_at DESC"
	}
}

func (t *txRepo) ProductSnapshots(ctx context.Context, storeID string, productIDs []string) (map[string]ProductSnapshot, error) {
	rows, err := t.tx.Query(ctx, `SELECT id::text, name, sku, buying_price, selling_price, is_active
		FROM products WHERE store_id::text = $1 AND id::text = ANY($2)`, storeID, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]ProductSnapshot, len(productIDs))
	for rows.Next() {
		var p ProductSnapshot
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &p.BuyingPrice, &p.SellingPrice, &p.IsActive); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (t *txRepo) Insert(ctx context.Context, sale Sale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return err
	}
	history, err := json.Marshal(sale.PaymentHistory)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO sales
		(id, store_id, invoice_number, cashier_id, customer_name, customer_phone, items, subtotal,
		 discount_amount, tax_amount, total_amount, paid_amount, change_amount, payment_status, payment_method,
		 profit_amount, payment_history, notes, created_at, updated_at)
		VALUES ($1, $2::uuid, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		sale.ID, sale.StoreID, sale.InvoiceNumber, sale.CashierID, sale.CustomerName, sale.CustomerPhone, items,
		sale.Subtotal, sale.DiscountAmount, sale.TaxAmount, sale.TotalAmount, sale.PaidAmount, sale.ChangeAmount,
		string(sale.PaymentStatus), sale.PaymentMethod, sale.ProfitAmount, history, sale.Notes, sale.CreatedAt, sale.UpdatedAt)
	return db.MapError(err)
}

func (t *txRepo) GetForUpdate(ctx context.Context, storeID, id string) (Sale, error) {
	return scanSale(t.tx.QueryRow(ctx, selectSale+` WHERE id::text = $1 AND store_id::text = $2 FOR UPDATE`, id, storeID))
}

func (t *txRepo) UpdatePayments(ctx context.Context, sale Sale) error {
	history, err := json.Marshal(sale.PaymentHistory)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `UPDATE sales SET paid_amount = $3, payment_status = $4, payment_history = $5, updated_at = $6
		WHERE id::text = $1 AND store_id::text = $2`,
		sale.ID, sale.StoreID, sale.PaidAmount, string(sale.PaymentStatus), history, sale.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) Delete(ctx context.Context, storeID, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales WHERE id::text = $1 AND store_id::text = $2`, id, storeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) Ledger() inventory.TxLedger {
	return inventory.NewTxLedger(t.tx)
}
