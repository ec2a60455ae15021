package inventory

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// Repository reads the stock ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithLedger runs fn with a ledger bound to a new transaction.
func (r *Repository) WithLedger(ctx context.Context, fn func(context.Context, TxLedger) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxLedger(tx))
	})
}

// ListMovements pages movements newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error) {
	var f db.Filter
	f.Add("store_id::text = %s", filter.StoreID)
	if filter.ProductID != "" {
		f.Add("product_id::text = %s", filter.ProductID)
	}
	if filter.RefType != "" {
		f.Add("ref_type = %s", string(filter.RefType))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_movements`+f.Where(), f.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit, args := f.Page(filter.PageSize, shared.Offset(filter.Page, filter.PageSize))
	rows, err := r.pool.Query(ctx, `SELECT id::text, store_id::text, product_id::text, delta, level_after,
		ref_type, ref_id::text, note, COALESCE(created_by::text, ''), created_at
		FROM stock_movements`+f.Where()+` ORDER BY created_at DESC`+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var mv Movement
		var ref string
		if err := rows.Scan(&mv.ID, &mv.StoreID, &mv.ProductID, &mv.Delta, &mv.LevelAfter, &ref, &mv.RefID, &mv.Note, &mv.CreatedBy, &mv.CreatedAt); err != nil {
			return nil, 0, err
		}
		mv.RefType = RefType(ref)
		out = append(out, mv)
	}
	return out, total, rows.Err()
}
