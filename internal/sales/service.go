package sales

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint/internal/inventory"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// RepositoryPort abstracts persistence for Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, storeID, id string) (Sale, error)
	List(ctx context.Context, filters ListFilters) ([]Sale, int, error)
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	ProductSnapshots(ctx context.Context, storeID string, productIDs []string) (map[string]ProductSnapshot, error)
	Insert(ctx context.Context, sale Sale) error
	GetForUpdate(ctx context.Context, storeID, id string) (Sale, error)
	UpdatePayments(ctx context.Context, sale Sale) error
	Delete(ctx context.Context, storeID, id string) error
	Ledger() inventory.TxLedger
}

// IdempotencyPort claims checkout keys.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// MovementObserver is told about committed stock movements.
type MovementObserver interface {
	ObserveStockMovement(refType string, delta int)
}

// ReportNotifier is told when a store's sales figures changed.
type ReportNotifier interface {
	EnqueueReportWarmup(ctx context.Context, storeID string) error
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	AllowNegativeStock bool
}

// Service runs checkout and the sale lifecycle.
type Service struct {
	repo        RepositoryPort
	idempotency IdempotencyPort
	audit       ActivityPort
	movements   MovementObserver
	reports     ReportNotifier
	logger      *slog.Logger
	allowNeg    bool
	now         func() time.Time
}

// Deps carries the optional collaborators of Service.
type Deps struct {
	Idempotency IdempotencyPort
	Audit       ActivityPort
	Movements   MovementObserver
	Reports     ReportNotifier
	Logger      *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, deps Deps, cfg ServiceConfig) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		idempotency: deps.Idempotency,
		audit:       deps.Audit,
		movements:   deps.Movements,
		reports:     deps.Reports,
		logger:      logger,
		allowNeg:    cfg.AllowNegativeStock,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

const idempotencyModule = "sales.checkout"

// Checkout prices the cart, stores the sale and decrements stock in one
// transaction. A stock shortfall aborts the whole sale unless negative stock
// is allowed.
func (s *Service) Checkout(ctx context.Context, input CheckoutInput) (Sale, error) {
	if input.StoreID == "" {
		return Sale{}, invalid("storeId is required")
	}
	if len(input.Lines) == 0 {
		return Sale{}, invalid("at least one item is required")
	}
	if input.DiscountAmount.IsNegative() || input.TaxAmount.IsNegative() {
		return Sale{}, invalid("discountAmount and taxAmount must not be negative")
	}
	if input.PaidAmount.Valid && input.PaidAmount.Decimal.IsNegative() {
		return Sale{}, invalid("paidAmount must not be negative")
	}
	for i, line := range input.Lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return Sale{}, invalid("item %d: productId is required", i+1)
		}
		if line.Quantity <= 0 {
			return Sale{}, invalid("item %d: quantity must be positive", i+1)
		}
	}

	key := ""
	if input.IdempotencyKey != "" && s.idempotency != nil {
		key = input.StoreID + ":" + input.IdempotencyKey
		if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			return Sale{}, err
		}
	}

	now := s.now()
	sale := Sale{
		ID:            uuid.NewString(),
		StoreID:       input.StoreID,
		InvoiceNumber: strings.TrimSpace(input.InvoiceNumber),
		CashierID:     input.CashierID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		CustomerPhone: strings.TrimSpace(input.CustomerPhone),
		PaymentMethod: input.PaymentMethod,
		Notes:         input.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if sale.InvoiceNumber == "" {
		sale.InvoiceNumber = shared.DocumentNumber("INV", now)
	}
	if sale.CashierID == "" {
		sale.CashierID = shared.ActorID(ctx)
	}
	if sale.PaymentMethod == "" {
		sale.PaymentMethod = defaultPaymentMethod
	}

	var moved []inventory.Movement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		snapshots, err := tx.ProductSnapshots(ctx, input.StoreID, lineProductIDs(input.Lines))
		if err != nil {
			return err
		}
		if err := price(&sale, input, snapshots); err != nil {
			return err
		}
		if err := tx.Insert(ctx, sale); err != nil {
			return err
		}
		moved, err = s.applyStock(ctx, tx.Ledger(), sale, -1, inventory.RefSale, s.allowNeg)
		return err
	})
	if err != nil {
		if key != "" {
			if delErr := s.idempotency.Delete(ctx, key); delErr != nil {
				s.logger.Warn("release checkout idempotency key", slog.String("key", key), slog.Any("error", delErr))
			}
		}
		return Sale{}, err
	}

	s.afterCommit(ctx, sale, moved)
	s.recordAudit(ctx, "SALE_CREATE", sale, map[string]any{
		"invoiceNumber": sale.InvoiceNumber,
		"total":         sale.TotalAmount.String(),
		"profit":        sale.ProfitAmount.String(),
	})
	return sale, nil
}

// price fills items and aggregates from the cart and product snapshots.
// Line profit is (sellingPrice - costPrice) * quantity; the order-level
// discount is taken off the summed profit once.
func price(sale *Sale, input CheckoutInput, snapshots map[string]ProductSnapshot) error {
	subtotal := decimal.Zero
	profit := decimal.Zero
	items := make([]Item, 0, len(input.Lines))
	for i, line := range input.Lines {
		product, ok := snapshots[line.ProductID]
		if !ok {
			return invalid("item %d: product %s not found in store", i+1, line.ProductID)
		}
		if !product.IsActive {
			return invalid("item %d: product %s is inactive", i+1, product.Name)
		}
		selling := product.SellingPrice
		if line.SellingPrice.Valid {
			selling = line.SellingPrice.Decimal
		}
		cost := product.BuyingPrice
		if line.CostPrice.Valid {
			cost = line.CostPrice.Decimal
		}
		if selling.IsNegative() || cost.IsNegative() || line.DiscountAmount.IsNegative() {
			return invalid("item %d: prices and discount must not be negative", i+1)
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		total := selling.Mul(qty).Sub(line.DiscountAmount)
		if total.IsNegative() {
			return invalid("item %d: discount exceeds line amount", i+1)
		}
		lineProfit := selling.Sub(cost).Mul(qty)

		name := product.Name
		if line.ProductName != "" {
			name = line.ProductName
		}
		items = append(items, Item{
			ProductID:      line.ProductID,
			ProductName:    name,
			SKU:            product.SKU,
			Quantity:       line.Quantity,
			SellingPrice:   selling,
			CostPrice:      cost,
			DiscountAmount: line.DiscountAmount,
			TotalAmount:    total,
			ProfitAmount:   lineProfit,
		})
		subtotal = subtotal.Add(total)
		profit = profit.Add(lineProfit)
	}

	total := subtotal.Sub(input.DiscountAmount).Add(input.TaxAmount)
	if total.IsNegative() {
		return invalid("discount exceeds sale amount")
	}
	if input.Subtotal.Valid && !shared.AmountsAgree(input.Subtotal.Decimal, subtotal) {
		return invalid("subtotal %s does not match items total %s", input.Subtotal.Decimal.String(), subtotal.String())
	}
	if input.TotalAmount.Valid && !shared.AmountsAgree(input.TotalAmount.Decimal, total) {
		return invalid("totalAmount %s does not match computed %s", input.TotalAmount.Decimal.String(), total.String())
	}

	paid := total
	if input.PaidAmount.Valid {
		paid = input.PaidAmount.Decimal
	}
	change := decimal.Zero
	if paid.GreaterThan(total) {
		change = shared.RoundMoney(paid.Sub(total))
		paid = total
	}
	sale.Items = items
	sale.Subtotal = subtotal
	sale.DiscountAmount = input.DiscountAmount
	sale.TaxAmount = input.TaxAmount
	sale.TotalAmount = total
	sale.ProfitAmount = profit.Sub(input.DiscountAmount)
	sale.PaidAmount = paid
	sale.ChangeAmount = change
	sale.PaymentStatus = shared.PaymentStatusFor(paid, total)
	sale.PaymentHistory = []Payment{}
	if paid.IsPositive() {
		sale.PaymentHistory = append(sale.PaymentHistory, Payment{
			Amount:     paid,
			Method:     sale.PaymentMethod,
			Date:       sale.CreatedAt,
			RecordedBy: sale.CashierID,
		})
	}
	return nil
}

// RecordPayment appends a payment. Paying more than the outstanding amount
// is rejected.
func (s *Service) RecordPayment(ctx context.Context, storeID, id string, input PaymentInput) (Sale, error) {
	if !input.Amount.IsPositive() {
		return Sale{}, invalid("payment amount must be positive")
	}
	var updated Sale
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetForUpdate(ctx, storeID, id)
		if err != nil {
			return err
		}
		paid := sale.PaidAmount.Add(input.Amount)
		if paid.Sub(sale.TotalAmount).GreaterThan(shared.MoneyTolerance) {
			return fmt.Errorf("%w: outstanding %s", ErrOverpayment, sale.TotalAmount.Sub(sale.PaidAmount).StringFixed(2))
		}
		method := input.Method
		if method == "" {
			method = sale.PaymentMethod
		}
		now := s.now()
		sale.PaymentHistory = append(sale.PaymentHistory, Payment{
			Amount:     input.Amount,
			Method:     method,
			Date:       now,
			RecordedBy: shared.ActorID(ctx),
			Note:       input.Note,
		})
		sale.PaidAmount = paid
		sale.PaymentStatus = shared.PaymentStatusFor(paid, sale.TotalAmount)
		sale.UpdatedAt = now
		updated = sale
		return tx.UpdatePayments(ctx, sale)
	})
	if err != nil {
		return Sale{}, err
	}
	s.recordAudit(ctx, "SALE_PAYMENT", updated, map[string]any{"amount": input.Amount.String(), "paymentStatus": updated.PaymentStatus})
	return updated, nil
}

// Delete removes a sale and returns its quantities to stock in the same transaction.
func (s *Service) Delete(ctx context.Context, storeID, id string) error {
	var (
		removed Sale
		moved   []inventory.Movement
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetForUpdate(ctx, storeID, id)
		if err != nil {
			return err
		}
		moved, err = s.applyStock(ctx, tx.Ledger(), sale, 1, inventory.RefSaleDelete, true)
		if err != nil {
			return err
		}
		removed = sale
		return tx.Delete(ctx, storeID, id)
	})
	if err != nil {
		return err
	}
	s.afterCommit(ctx, removed, moved)
	s.recordAudit(ctx, "SALE_DELETE", removed, map[string]any{"invoiceNumber": removed.InvoiceNumber})
	return nil
}

// Get loads one sale.
func (s *Service) Get(ctx context.Context, storeID, id string) (Sale, error) {
	return s.repo.Get(ctx, storeID, id)
}

// List pages sales of a store.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[Sale], error) {
	if filters.StoreID == "" {
		return shared.Page[Sale]{}, invalid("storeId is required")
	}
	if !filters.From.IsZero() && !filters.To.IsZero() && filters.To.Before(filters.From) {
		return shared.Page[Sale]{}, invalid("to must not be before from")
	}
	filters.Page, filters.PageSize = shared.NormalizePage(filters.Page, filters.PageSize, shared.DefaultPageSize)
	sales, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return shared.Page[Sale]{}, err
	}
	return shared.NewPage(sales, filters.Page, filters.PageSize, total), nil
}

// applyStock moves every product of sale by sign*quantity, one movement per
// product in a fixed order.
func (s *Service) applyStock(ctx context.Context, ledger inventory.TxLedger, sale Sale, sign int, ref inventory.RefType, allowNegative bool) ([]inventory.Movement, error) {
	qty := make(map[string]int, len(sale.Items))
	for _, item := range sale.Items {
		qty[item.ProductID] += item.Quantity
	}
	productIDs := make([]string, 0, len(qty))
	for id := range qty {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	moved := make([]inventory.Movement, 0, len(productIDs))
	for _, productID := range productIDs {
		mv, err := ledger.Adjust(ctx, inventory.Adjustment{
			StoreID:       sale.StoreID,
			ProductID:     productID,
			Delta:         sign * qty[productID],
			RefType:       ref,
			RefID:         sale.ID,
			Note:          sale.InvoiceNumber,
			CreatedBy:     shared.ActorID(ctx),
			AllowNegative: allowNegative,
		})
		if err != nil {
			return nil, err
		}
		moved = append(moved, mv)
	}
	return moved, nil
}

func (s *Service) afterCommit(ctx context.Context, sale Sale, moved []inventory.Movement) {
	if s.movements != nil {
		for _, mv := range moved {
			s.movements.ObserveStockMovement(string(mv.RefType), mv.Delta)
		}
	}
	if s.reports != nil {
		if err := s.reports.EnqueueReportWarmup(ctx, sale.StoreID); err != nil {
			s.logger.Warn("enqueue report warmup", slog.String("store_id", sale.StoreID), slog.Any("error", err))
		}
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, sale Sale, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.ActivityLog{Action: action, Entity: "sale", EntityID: sale.ID, StoreID: sale.StoreID, Meta: meta}); err != nil {
		s.logger.Warn("record sale activity", slog.String("action", action), slog.Any("error", err))
	}
}

func lineProductIDs(lines []LineInput) []string {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}

// IsShortfall reports whether err is a stock shortfall.
func IsShortfall(err error) bool {
	return errors.Is(err, inventory.ErrInsufficientStock)
}
