package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tillpoint/tillpoint/internal/platform/db"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// TxLedger is the only way stock levels and purchase prices change. It runs
// inside the caller's transaction so document writes and stock effects
// commit or roll back together.
type TxLedger interface {
	Adjust(ctx context.Context, adj Adjustment) (Movement, error)
	SetPrices(ctx context.Context, update PriceUpdate) error
}

type pgLedger struct {
	tx db.DBTX
}

// NewTxLedger binds a ledger to tx.
func NewTxLedger(tx db.DBTX) TxLedger {
	return &pgLedger{tx: tx}
}

func (l *pgLedger) Adjust(ctx context.Context, adj Adjustment) (Movement, error) {
	if adj.Delta == 0 {
		return Movement{}, ErrInvalidQuantity
	}
	var level int
	err := l.tx.QueryRow(ctx, `UPDATE products
		SET stock_level = stock_level + $3, updated_at = NOW()
		WHERE id = $1::uuid AND store_id = $2::uuid AND ($4 OR stock_level + $3 >= 0)
		RETURNING stock_level`, adj.ProductID, adj.StoreID, adj.Delta, adj.AllowNegative).Scan(&level)
	if errors.Is(err, pgx.ErrNoRows) {
		return Movement{}, l.explainMiss(ctx, adj)
	}
	if err != nil {
		return Movement{}, db.MapError(err)
	}

	mv := Movement{
		ID:         uuid.NewString(),
		StoreID:    adj.StoreID,
		ProductID:  adj.ProductID,
		Delta:      adj.Delta,
		LevelAfter: level,
		RefType:    adj.RefType,
		RefID:      adj.RefID,
		Note:       adj.Note,
		CreatedBy:  adj.CreatedBy,
		CreatedAt:  time.Now().UTC(),
	}
	_, err = l.tx.Exec(ctx, `INSERT INTO stock_movements
		(id, store_id, product_id, delta, level_after, ref_type, ref_id, note, created_by, created_at)
		VALUES ($1, $2::uuid, $3::uuid, $4, $5, $6, $7::uuid, $8, NULLIF($9, '')::uuid, $10)`,
		mv.ID, mv.StoreID, mv.ProductID, mv.Delta, mv.LevelAfter, string(mv.RefType), mv.RefID, mv.Note, mv.CreatedBy, mv.CreatedAt)
	if err != nil {
		return Movement{}, db.MapError(err)
	}
	return mv, nil
}

func (l *pgLedger) explainMiss(ctx context.Context, adj Adjustment) error {
	var current int
	err := l.tx.QueryRow(ctx, `SELECT stock_level FROM products WHERE id = $1::uuid AND store_id = $2::uuid`,
		adj.ProductID, adj.StoreID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: product %s", shared.ErrNotFound, adj.ProductID)
	}
	if err != nil {
		return db.MapError(err)
	}
	return &ShortfallError{ProductID: adj.ProductID, Available: current, Requested: -adj.Delta}
}

func (l *pgLedger) SetPrices(ctx context.Context, update PriceUpdate) error {
	tag, err := l.tx.Exec(ctx, `UPDATE products
		SET buying_price = $3,
		    selling_price = CASE WHEN $4 THEN $5 ELSE selling_price END,
		    updated_at = NOW()
		WHERE id = $1::uuid AND store_id = $2::uuid`,
		update.ProductID, update.StoreID, update.BuyingPrice, update.SellingPrice.IsPositive(), update.SellingPrice)
	if err != nil {
		return db.MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %s", shared.ErrNotFound, update.ProductID)
	}
	return nil
}
