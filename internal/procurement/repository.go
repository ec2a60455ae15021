package procurement

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

// Repository persists purchase orders in PostgreSQL. Items are embedded in
// the order row as JSONB.
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

const selectOrder = `SELECT p.id::text, p.store_id::text, p.supplier_id::text, COALESCE(s.name, ''),
	p.po_number, p.purchase_date, p.status, p.items, p.subtotal, p.discount_amount, p.tax_amount,
	p.shipping_cost, p.total_amount, p.paid_amount, p.payment_status, p.notes,
	COALESCE(p.created_by::text, ''), p.created_at, p.updated_at
	FROM purchase_orders p
	LEFT JOIN suppliers s ON s.id = p.supplier_id`

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var (
		po            PurchaseOrder
		status        string
		paymentStatus string
		items         []byte
	)
	err := row.Scan(&po.ID, &po.StoreID, &po.SupplierID, &po.SupplierName, &po.PONumber, &po.PurchaseDate,
		&status, &items, &po.Subtotal, &po.DiscountAmount, &po.TaxAmount, &po.ShippingCost, &po.TotalAmount,
		&po.PaidAmount, &paymentStatus, &po.Notes, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		return PurchaseOrder{}, db.MapError(err)
	}
	po.Status = Status(status)
	po.PaymentStatus = shared.PaymentStatus(paymentStatus)
	if err := json.Unmarshal(items, &po.Items); err != nil {
		return PurchaseOrder{}, fmt.Errorf("procurement: decode items of %s: %w", po.ID, err)
	}
	return po, nil
}

// Get loads one order of a store.
func (r *Repository) Get(ctx context.Context, storeID, id string) (PurchaseOrder, error) {
	return scanOrder(r.pool.QueryRow(ctx, selectOrder+` WHERE p.id::text = $1 AND p.store_id::text = $2`, id, storeID))
}

// List returns orders with supplier names, filtered and paged.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]PurchaseOrder, int, error) {
	var f db.Filter
	f.Add("p.store_id::text = %s", filters.StoreID)
	if filters.Status != "" {
		f.Add("p.status = %s", string(filters.Status))
	}
	if filters.SupplierID != "" {
		f.Add("p.supplier_id::text = %s", filters.SupplierID)
	}
	if filters.PaymentStatus != "" {
		f.Add("p.payment_status = %s", string(filters.PaymentStatus))
	}
	if filters.Search != "" {
		f.Add("p.po_number ILIKE %s", db.Contains(filters.Search))
	}
	if !filters.From.IsZero() {
		f.Add("p.purchase_date >= %s", filters.From)
	}
	if !filters.To.IsZero() {
		f.Add("p.purchase_date < %s", filters.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders p`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, args := f.Page(filters.PageSize, shared.Offset(filters.Page, filters.PageSize))
	rows, err := r.pool.Query(ctx, selectOrder+f.Where()+` ORDER BY `+sortOrder(filters.SortBy, filters.SortDir)+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []PurchaseOrder
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, po)
	}
	return orders, total, rows.Err()
}

// sortOrder returns a safe ORDER BY clause for order listings.
func sortOrder(sortBy, sortDir string) string {
	dir := db.Direction(sortDir)
	switch sortBy {
	case "poNumber":
		return "p.po_number " + dir
	case "supplier":
		return "s.name " + dir
	case "purchaseDate":
		return "p.purchase_date " + dir
	case "totalAmount":
		return "p.total_amount " + dir
	case "status":
		return "p.status " + dir
	default:
		return "p.created_at DESC"
	}
}

func (t *txRepo) GetForUpdate(ctx context.Context, storeID, id string) (PurchaseOrder, error) {
	return scanOrder(t.tx.QueryRow(ctx, selectOrder+` WHERE p.id::text = $1 AND p.store_id::text = $2 FOR UPDATE OF p`, id, storeID))
}

func (t *txRepo) Insert(ctx context.Context, po PurchaseOrder) error {
	items, err := json.Marshal(po.Items)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO purchase_orders
		(id, store_id, supplier_id, po_number, purchase_date, status, items, subtotal, discount_amount,
		 tax_amount, shipping_cost, total_amount, paid_amount, payment_status, notes, created_by, created_at, updated_at)
		VALUES ($1, $2::uuid, $3::uuid, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NULLIF($16, '')::uuid, $17, $18)`,
		po.ID, po.StoreID, po.SupplierID, po.PONumber, po.PurchaseDate, string(po.Status), items, po.Subtotal,
		po.DiscountAmount, po.TaxAmount, po.ShippingCost, po.TotalAmount, po.PaidAmount, string(po.PaymentStatus),
		po.Notes, po.CreatedBy, po.CreatedAt, po.UpdatedAt)
	return db.MapError(err)
}

func (t *txRepo) Update(ctx context.Context, po PurchaseOrder) error {
	items, err := json.Marshal(po.Items)
	if err != nil {
		return err
	}
	tag, err := t.tx.Exec(ctx, `UPDATE purchase_orders SET
		supplier_id = $3::uuid, po_number = $4, purchase_date = $5, status = $6, items = $7, subtotal = $8,
		discount_amount = $9, tax_amount = $10, shipping_cost = $11, total_amount = $12, paid_amount = $13,
		payment_status = $14, notes = $15, updated_at = $16
		WHERE id::text = $1 AND store_id::text = $2`,
		po.ID, po.StoreID, po.SupplierID, po.PONumber, po.PurchaseDate, string(po.Status), items, po.Subtotal,
		po.DiscountAmount, po.TaxAmount, po.ShippingCost, po.TotalAmount, po.PaidAmount, string(po.PaymentStatus),
		po.Notes, po.UpdatedAt)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) Delete(ctx context.Context, storeID, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id::text = $1 AND store_id::text = $2`, id, storeID)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) SupplierExists(ctx context.Context, storeID, supplierID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id::text = $1 AND store_id::text = $2)`,
		supplierID, storeID).Scan(&exists)
	return exists, err
}

func (t *txRepo) ProductNames(ctx context.Context, storeID string, productIDs []string) (map[string]string, error) {
	rows, err := t.tx.Query(ctx, `SELECT id::text, name FROM products WHERE store_id::text = $1 AND id::text = ANY($2)`,
		storeID, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := make(map[string]string, len(productIDs))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (t *txRepo) Ledger() inventory.TxLedger {
	return inventory.NewTxLedger(t.tx)
}
