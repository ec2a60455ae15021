package procurement

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint/internal/inventory"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, storeID, id string) (PurchaseOrder, error)
	List(ctx context.Context, filters ListFilters) ([]PurchaseOrder, int, error)
}

// TxRepository exposes transactional operations used by Service.
type TxRepository interface {
	GetForUpdate(ctx context.Context, storeID, id string) (PurchaseOrder, error)
	Insert(ctx context.Context, po PurchaseOrder) error
	Update(ctx context.Context, po PurchaseOrder) error
	Delete(ctx context.Context, storeID, id string) error
	SupplierExists(ctx context.Context, storeID, supplierID string) (bool, error)
	ProductNames(ctx context.Context, storeID string, productIDs []string) (map[string]string, error)
	Ledger() inventory.TxLedger
}

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// MovementObserver is told about committed stock movements.
type MovementObserver interface {
	ObserveStockMovement(refType string, delta int)
}

// Service orchestrates the purchase order workflow. Every stock and price
// side effect commits in the same transaction as the order document.
type Service struct {
	repo      RepositoryPort
	audit     ActivityPort
	movements MovementObserver
	now       func() time.Time
}

// NewService constructs the procurement service. audit and movements may be nil.
func NewService(repo RepositoryPort, audit ActivityPort, movements MovementObserver) *Service {
	return &Service{repo: repo, audit: audit, movements: movements, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts a purchase order, increments stock for every item and
// records the item prices on the products.
func (s *Service) Create(ctx context.Context, input OrderInput) (PurchaseOrder, error) {
	if strings.TrimSpace(input.SupplierID) == "" {
		return PurchaseOrder{}, invalid("supplierId is required")
	}
	if len(input.Items) == 0 {
		return PurchaseOrder{}, invalid("at least one item is required")
	}
	status := input.Status
	if status == "" {
		status = StatusDraft
	}
	now := s.now()
	po := PurchaseOrder{
		ID:             uuid.NewString(),
		StoreID:        input.StoreID,
		SupplierID:     input.SupplierID,
		PONumber:       defaultString(strings.TrimSpace(input.PONumber), shared.DocumentNumber("PO", now)),
		PurchaseDate:   defaultTime(input.PurchaseDate, now),
		Status:         status,
		DiscountAmount: input.DiscountAmount.Decimal,
		TaxAmount:      input.TaxAmount.Decimal,
		ShippingCost:   input.ShippingCost.Decimal,
		PaidAmount:     input.PaidAmount.Decimal,
		CreatedBy:      shared.ActorID(ctx),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if input.Notes != nil {
		po.Notes = *input.Notes
	}

	var moved []inventory.Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkSupplier(ctx, tx, po.StoreID, po.SupplierID); err != nil {
			return err
		}
		items, err := resolveItems(ctx, tx, po.StoreID, input.Items)
		if err != nil {
			return err
		}
		po.Items = items
		if status == StatusReceived {
			markReceived(&po)
		}
		if err := applyTotals(&po, input); err != nil {
			return err
		}
		if err := tx.Insert(ctx, po); err != nil {
			return err
		}
		moved, err = s.applyStock(ctx, tx.Ledger(), po, stockDelta(nil, po.Items), inventory.RefPurchaseOrder)
		if err != nil {
			return err
		}
		return setPrices(ctx, tx.Ledger(), po)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.observe(moved)
	s.recordAudit(ctx, "PO_CREATE", po, map[string]any{"poNumber": po.PONumber, "items": len(po.Items), "total": po.TotalAmount.String()})
	return po, nil
}

// Update replaces the writable fields of an order. Stock moves by the
// per-product difference between the stored and the new lines, so an
// unchanged order leaves stock untouched and no level passes through a
// reverted intermediate state. Prices are set again from every line of the
// resulting order.
func (s *Service) Update(ctx context.Context, id string, input OrderInput) (PurchaseOrder, error) {
	if id == "" {
		return PurchaseOrder{}, invalid("id is required")
	}
	if input.Items != nil && len(input.Items) == 0 {
		return PurchaseOrder{}, invalid("at least one item is required")
	}

	var (
		updated PurchaseOrder
		moved   []inventory.Movement
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, input.StoreID, id)
		if err != nil {
			return err
		}
		po := existing
		if supplier := strings.TrimSpace(input.SupplierID); supplier != "" && supplier != existing.SupplierID {
			if err := checkSupplier(ctx, tx, po.StoreID, supplier); err != nil {
				return err
			}
			po.SupplierID = supplier
		}
		if number := strings.TrimSpace(input.PONumber); number != "" {
			po.PONumber = number
		}
		if !input.PurchaseDate.IsZero() {
			po.PurchaseDate = input.PurchaseDate
		}
		if input.Notes != nil {
			po.Notes = *input.Notes
		}
		if input.DiscountAmount.Valid {
			po.DiscountAmount = input.DiscountAmount.Decimal
		}
		if input.TaxAmount.Valid {
			po.TaxAmount = input.TaxAmount.Decimal
		}
		if input.ShippingCost.Valid {
			po.ShippingCost = input.ShippingCost.Decimal
		}
		if input.PaidAmount.Valid {
			po.PaidAmount = input.PaidAmount.Decimal
		}
		if input.Items != nil {
			items, err := resolveItems(ctx, tx, po.StoreID, input.Items)
			if err != nil {
				return err
			}
			po.Items = items
		}
		if input.Status != "" {
			if !CanTransition(existing.Status, input.Status) {
				return fmt.Errorf("%w: %s to %s", ErrInvalidState, existing.Status, input.Status)
			}
			po.Status = input.Status
		}
		if po.Status == StatusReceived {
			markReceived(&po)
		}
		if err := applyTotals(&po, input); err != nil {
			return err
		}
		po.UpdatedAt = s.now()
		if err := tx.Update(ctx, po); err != nil {
			return err
		}
		moved, err = s.applyStock(ctx, tx.Ledger(), po, stockDelta(existing.Items, po.Items), inventory.RefPurchaseOrderUpdate)
		if err != nil {
			return err
		}
		if err := setPrices(ctx, tx.Ledger(), po); err != nil {
			return err
		}
		updated = po
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.observe(moved)
	s.recordAudit(ctx, "PO_UPDATE", updated, map[string]any{"poNumber": updated.PONumber, "stockMovements": len(moved)})
	return updated, nil
}

// Delete removes an order and reverses the stock it added. Prices set by
// the order stay as they are.
func (s *Service) Delete(ctx context.Context, storeID, id string) error {
	var (
		removed PurchaseOrder
		moved   []inventory.Movement
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.GetForUpdate(ctx, storeID, id)
		if err != nil {
			return err
		}
		moved, err = s.applyStock(ctx, tx.Ledger(), existing, stockDelta(existing.Items, nil), inventory.RefPurchaseOrderDelete)
		if err != nil {
			return err
		}
		removed = existing
		return tx.Delete(ctx, storeID, id)
	})
	if err != nil {
		return err
	}
	s.observe(moved)
	s.recordAudit(ctx, "PO_DELETE", removed, map[string]any{"poNumber": removed.PONumber})
	return nil
}

// UpdateStatus moves an order along DRAFT -> CONFIRMED -> RECEIVED, or to
// CANCELLED from a non-final state.
func (s *Service) UpdateStatus(ctx context.Context, storeID, id string, status Status) (PurchaseOrder, error) {
	var updated PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, storeID, id)
		if err != nil {
			return err
		}
		if !CanTransition(po.Status, status) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidState, po.Status, status)
		}
		po.Status = status
		if status == StatusReceived {
			markReceived(&po)
		}
		po.UpdatedAt = s.now()
		updated = po
		return tx.Update(ctx, po)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, "PO_STATUS", updated, map[string]any{"status": updated.Status})
	return updated, nil
}

// RecordPayment adds amount to the paid total and recomputes the payment status.
func (s *Service) RecordPayment(ctx context.Context, storeID, id string, amount decimal.Decimal) (PurchaseOrder, error) {
	if !amount.IsPositive() {
		return PurchaseOrder{}, invalid("payment amount must be positive")
	}
	var updated PurchaseOrder
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		po, err := tx.GetForUpdate(ctx, storeID, id)
		if err != nil {
			return err
		}
		paid := po.PaidAmount.Add(amount)
		if paid.Sub(po.TotalAmount).GreaterThan(shared.MoneyTolerance) {
			return fmt.Errorf("%w: outstanding %s", ErrOverpayment, po.TotalAmount.Sub(po.PaidAmount).StringFixed(2))
		}
		po.PaidAmount = paid
		po.PaymentStatus = shared.PaymentStatusFor(po.PaidAmount, po.TotalAmount)
		po.UpdatedAt = s.now()
		updated = po
		return tx.Update(ctx, po)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, "PO_PAYMENT", updated, map[string]any{"amount": amount.String(), "paymentStatus": updated.PaymentStatus})
	return updated, nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, storeID, id string) (PurchaseOrder, error) {
	return s.repo.Get(ctx, storeID, id)
}

// List pages the orders of a store.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[PurchaseOrder], error) {
	filters.Page, filters.PageSize = shared.NormalizePage(filters.Page, filters.PageSize, shared.DefaultPageSize)
	orders, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return shared.Page[PurchaseOrder]{}, err
	}
	return shared.NewPage(orders, filters.Page, filters.PageSize, total), nil
}

func (s *Service) applyStock(ctx context.Context, ledger inventory.TxLedger, po PurchaseOrder, deltas map[string]int, ref inventory.RefType) ([]inventory.Movement, error) {
	productIDs := make([]string, 0, len(deltas))
	for productID, delta := range deltas {
		if delta != 0 {
			productIDs = append(productIDs, productID)
		}
	}
	// Fixed order keeps concurrent orders from deadlocking on product rows.
	sort.Strings(productIDs)

	moved := make([]inventory.Movement, 0, len(productIDs))
	for _, productID := range productIDs {
		mv, err := ledger.Adjust(ctx, inventory.Adjustment{
			StoreID:       po.StoreID,
			ProductID:     productID,
			Delta:         deltas[productID],
			RefType:       ref,
			RefID:         po.ID,
			Note:          po.PONumber,
			CreatedBy:     shared.ActorID(ctx),
			AllowNegative: true,
		})
		if err != nil {
			return nil, err
		}
		moved = append(moved, mv)
	}
	return moved, nil
}

func (s *Service) observe(moved []inventory.Movement) {
	if s.movements == nil {
		return
	}
	for _, mv := range moved {
		s.movements.ObserveStockMovement(string(mv.RefType), mv.Delta)
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, po PurchaseOrder, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.ActivityLog{Action: action, Entity: "purchase_order", EntityID: po.ID, StoreID: po.StoreID, Meta: meta})
}

func checkSupplier(ctx context.Context, tx TxRepository, storeID, supplierID string) error {
	ok, err := tx.SupplierExists(ctx, storeID, supplierID)
	if err != nil {
		return err
	}
	if !ok {
		return invalid("supplier %s not found in store", supplierID)
	}
	return nil
}

// resolveItems validates the lines, snapshots product names and computes
// each line total.
func resolveItems(ctx context.Context, tx TxRepository, storeID string, inputs []ItemInput) ([]Item, error) {
	ids := make([]string, 0, len(inputs))
	for i, in := range inputs {
		switch {
		case strings.TrimSpace(in.ProductID) == "":
			return nil, invalid("item %d: productId is required", i+1)
		case in.Quantity <= 0:
			return nil, invalid("item %d: quantity must be positive", i+1)
		case in.UnitCost.IsNegative():
			return nil, invalid("item %d: unitCost must not be negative", i+1)
		case in.SellingPrice.IsNegative():
			return nil, invalid("item %d: sellingPrice must not be negative", i+1)
		case in.DiscountAmount.IsNegative():
			return nil, invalid("item %d: discountAmount must not be negative", i+1)
		}
		ids = append(ids, in.ProductID)
	}
	names, err := tx.ProductNames(ctx, storeID, ids)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(inputs))
	for i, in := range inputs {
		name, ok := names[in.ProductID]
		if !ok {
			return nil, invalid("item %d: product %s not found in store", i+1, in.ProductID)
		}
		if in.ProductName != "" {
			name = in.ProductName
		}
		total := lineTotal(in.Quantity, in.UnitCost, in.DiscountAmount)
		if total.IsNegative() {
			return nil, invalid("item %d: discount exceeds line amount", i+1)
		}
		if in.TotalCost.Valid && !shared.AmountsAgree(in.TotalCost.Decimal, total) {
			return nil, invalid("item %d: totalCost %s does not match %s", i+1, in.TotalCost.Decimal.String(), total.String())
		}
		items = append(items, Item{
			ProductID:      in.ProductID,
			ProductName:    name,
			Quantity:       in.Quantity,
			UnitCost:       in.UnitCost,
			SellingPrice:   in.SellingPrice,
			DiscountAmount: in.DiscountAmount,
			TotalCost:      total,
		})
	}
	return items, nil
}

func lineTotal(qty int, unitCost, discount decimal.Decimal) decimal.Decimal {
	return unitCost.Mul(decimal.NewFromInt(int64(qty))).Sub(discount)
}

// applyTotals recomputes subtotal, total and payment status, rejecting
// caller-supplied aggregates that disagree with the lines.
func applyTotals(po *PurchaseOrder, input OrderInput) error {
	for name, amount := range map[string]decimal.Decimal{
		"discountAmount": po.DiscountAmount,
		"taxAmount":      po.TaxAmount,
		"shippingCost":   po.ShippingCost,
		"paidAmount":     po.PaidAmount,
	} {
		if amount.IsNegative() {
			return invalid("%s must not be negative", name)
		}
	}
	subtotal := decimal.Zero
	for _, item := range po.Items {
		subtotal = subtotal.Add(item.TotalCost)
	}
	total := subtotal.Add(po.TaxAmount).Add(po.ShippingCost).Sub(po.DiscountAmount)
	if total.IsNegative() {
		return invalid("discount exceeds order amount")
	}
	if input.Subtotal.Valid && !shared.AmountsAgree(input.Subtotal.Decimal, subtotal) {
		return invalid("subtotal %s does not match items total %s", input.Subtotal.Decimal.String(), subtotal.String())
	}
	if input.TotalAmount.Valid && !shared.AmountsAgree(input.TotalAmount.Decimal, total) {
		return invalid("totalAmount %s does not match computed %s", input.TotalAmount.Decimal.String(), total.String())
	}
	po.Subtotal = subtotal
	po.TotalAmount = total
	po.PaymentStatus = shared.PaymentStatusFor(po.PaidAmount, po.TotalAmount)
	return nil
}

// stockDelta returns new minus old quantity per product.
func stockDelta(old, updated []Item) map[string]int {
	deltas := make(map[string]int, len(old)+len(updated))
	for _, item := range old {
		deltas[item.ProductID] -= item.Quantity
	}
	for _, item := range updated {
		deltas[item.ProductID] += item.Quantity
	}
	return deltas
}

func setPrices(ctx context.Context, ledger inventory.TxLedger, po PurchaseOrder) error {
	for _, item := range po.Items {
		err := ledger.SetPrices(ctx, inventory.PriceUpdate{
			StoreID:      po.StoreID,
			ProductID:    item.ProductID,
			BuyingPrice:  item.UnitCost,
			SellingPrice: item.SellingPrice,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func markReceived(po *PurchaseOrder) {
	for i := range po.Items {
		po.Items[i].ReceivedQuantity = po.Items[i].Quantity
	}
}

func defaultString(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultTime(value, fallback time.Time) time.Time {
	if value.IsZero() {
		return fallback
	}
	return value
}
