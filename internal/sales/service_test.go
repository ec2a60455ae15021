package sales

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/inventory"
	"github.com/tillpoint/tillpoint/internal/shared"
)

type memoryProduct struct {
	ProductSnapshot
	stock int
}

type memorySalesRepo struct {
	sales    map[string]Sale
	products map[string]*memoryProduct
}

type memorySalesTx struct {
	repo *memorySalesRepo
}

func newMemorySalesRepo() *memorySalesRepo {
	repo := &memorySalesRepo{sales: make(map[string]Sale), products: make(map[string]*memoryProduct)}
	repo.products["shirt"] = &memoryProduct{ProductSnapshot: ProductSnapshot{ID: "shirt", Name: "Shirt", SKU: "SH-1", BuyingPrice: dec("60"), SellingPrice: dec("100"), IsActive: true}, stock: 10}
	repo.products["socks"] = &memoryProduct{ProductSnapshot: ProductSnapshot{ID: "socks", Name: "Socks", SKU: "SO-1", BuyingPrice: dec("50"), SellingPrice: dec("50"), IsActive: true}, stock: 1}
	repo.products["retired"] = &memoryProduct{ProductSnapshot: ProductSnapshot{ID: "retired", Name: "Old", SellingPrice: dec("1")}, stock: 5}
	return repo
}

func (r *memorySalesRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	sales := make(map[string]Sale, len(r.sales))
	for k, v := range r.sales {
		sales[k] = v
	}
	stock := make(map[string]int, len(r.products))
	for k, v := range r.products {
		stock[k] = v.stock
	}
	if err := fn(ctx, &memorySalesTx{repo: r}); err != nil {
		r.sales = sales
		for k, v := range stock {
			r.products[k].stock = v
		}
		return err
	}
	return nil
}

func (r *memorySalesRepo) Get(_ context.Context, storeID, id string) (Sale, error) {
	sale, ok := r.sales[id]
	if !ok || sale.StoreID != storeID {
		return Sale{}, ErrNotFound
	}
	return sale, nil
}

func (r *memorySalesRepo) List(_ context.Context, filters ListFilters) ([]Sale, int, error) {
	var out []Sale
	for _, sale := range r.sales {
		if sale.StoreID == filters.StoreID {
			out = append(out, sale)
		}
	}
	return out, len(out), nil
}

func (tx *memorySalesTx) ProductSnapshots(_ context.Context, _ string, ids []string) (map[string]ProductSnapshot, error) {
	out := make(map[string]ProductSnapshot)
	for _, id := range ids {
		if p, ok := tx.repo.products[id]; ok {
			out[id] = p.ProductSnapshot
		}
	}
	return out, nil
}

func (tx *memorySalesTx) Insert(_ context.Context, sale Sale) error {
	for _, existing := range tx.repo.sales {
		if existing.StoreID == sale.StoreID && existing.InvoiceNumber == sale.InvoiceNumber {
			return fmt.Errorf("%w: sales_store_invoice_key", shared.ErrDuplicate)
		}
	}
	tx.repo.sales[sale.ID] = sale
	return nil
}

func (tx *memorySalesTx) GetForUpdate(ctx context.Context, storeID, id string) (Sale, error) {
	sale, err := tx.repo.Get(ctx, storeID, id)
	if err != nil {
		return Sale{}, err
	}
	sale.PaymentHistory = append([]Payment(nil), sale.PaymentHistory...)
	return sale, nil
}

func (tx *memorySalesTx) UpdatePayments(_ context.Context, sale Sale) error {
	tx.repo.sales[sale.ID] = sale
	return nil
}

func (tx *memorySalesTx) Delete(_ context.Context, _ string, id string) error {
	if _, ok := tx.repo.sales[id]; !ok {
		return ErrNotFound
	}
	delete(tx.repo.sales, id)
	return nil
}

func (tx *memorySalesTx) Ledger() inventory.TxLedger {
	return memoryLedger{repo: tx.repo}
}

type memoryLedger struct {
	repo *memorySalesRepo
}

func (l memoryLedger) Adjust(_ context.Context, adj inventory.Adjustment) (inventory.Movement, error) {
	p, ok := l.repo.products[adj.ProductID]
	if !ok {
		return inventory.Movement{}, shared.ErrNotFound
	}
	if !adj.AllowNegative && p.stock+adj.Delta < 0 {
		return inventory.Movement{}, &inventory.ShortfallError{ProductID: adj.ProductID, Available: p.stock, Requested: -adj.Delta}
	}
	p.stock += adj.Delta
	return inventory.Movement{ProductID: adj.ProductID, Delta: adj.Delta, LevelAfter: p.stock, RefType: adj.RefType}, nil
}

func (l memoryLedger) SetPrices(context.Context, inventory.PriceUpdate) error {
	return errors.New("checkout never sets prices")
}

type memoryIdempotency struct {
	keys map[string]bool
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, _ string) error {
	if m.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = true
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

type recordingNotifier []string

func (n *recordingNotifier) EnqueueReportWarmup(_ context.Context, storeID string) error {
	*n = append(*n, storeID)
	return nil
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func cart(discount string) CheckoutInput {
	return CheckoutInput{
		StoreID: "store-1",
		Lines: []LineInput{
			{ProductID: "shirt", Quantity: 2, SellingPrice: decimal.NewNullDecimal(dec("100")), CostPrice: decimal.NewNullDecimal(dec("60"))},
			{ProductID: "socks", Quantity: 1, SellingPrice: decimal.NewNullDecimal(dec("50")), CostPrice: decimal.NewNullDecimal(dec("50"))},
		},
		DiscountAmount: dec(discount),
	}
}

func TestCheckoutProfitAndStock(t *testing.T) {
	repo := newMemorySalesRepo()
	notifier := &recordingNotifier{}
	svc := NewService(repo, Deps{Reports: notifier}, ServiceConfig{})

	sale, err := svc.Checkout(context.Background(), cart("0"))
	require.NoError(t, err)

	require.True(t, dec("80").Equal(sale.ProfitAmount), sale.ProfitAmount.String())
	require.True(t, dec("80").Equal(sale.Items[0].ProfitAmount))
	require.True(t, decimal.Zero.Equal(sale.Items[1].ProfitAmount))
	require.Equal(t, 8, repo.products["shirt"].stock)
	require.Equal(t, 0, repo.products["socks"].stock)
	require.True(t, dec("250").Equal(sale.Subtotal))
	require.True(t, dec("250").Equal(sale.TotalAmount))
	require.True(t, dec("250").Equal(sale.PaidAmount))
	require.Equal(t, shared.PaymentPaid, sale.PaymentStatus)
	require.Len(t, sale.PaymentHistory, 1)
	require.Equal(t, "CASH", sale.PaymentMethod)
	require.Regexp(t, `^INV-\d+-[0-9A-F]{6}$`, sale.InvoiceNumber)
	require.True(t, sale.ChangeAmount.IsZero())
	require.Equal(t, []string{"store-1"}, []string(*notifier))
}

func TestCheckoutDiscountAppliedOnceToProfit(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, Deps{}, ServiceConfig{})

	input := cart("20")
	input.TaxAmount = dec("5")
	sale, err := svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	require.True(t, dec("60").Equal(sale.ProfitAmount), sale.ProfitAmount.String())
	require.True(t, dec("235").Equal(sale.TotalAmount))
}

func TestCheckoutSnapshotsFromProduct(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, Deps{}, ServiceConfig{})

	sale, err := svc.Checkout(context.Background(), CheckoutInput{
		StoreID: "store-1",
		Lines:   []LineInput{{ProductID: "shirt", Quantity: 3, DiscountAmount: dec("10")}},
	})
	require.NoError(t, err)
	item := sale.Items[0]
	require.Equal(t, "Shirt", item.ProductName)
	require.Equal(t, "SH-1", item.SKU)
	require.True(t, dec("60").Equal(item.CostPrice))
	require.True(t, dec("290").Equal(item.TotalAmount))
	require.True(t, dec("120").Equal(item.ProfitAmount))
}

func TestCheckoutInsufficientStockRollsBack(t *testing.T) {
	repo := newMemorySalesRepo()
	idem := &memoryIdempotency{keys: map[string]bool{}}
	notifier := &recordingNotifier{}
	svc := NewService(repo, Deps{Idempotency: idem, Reports: notifier}, ServiceConfig{})

	input := cart("0")
	input.Lines[1].Quantity = 2
	input.IdempotencyKey = "till-1-0001"
	_, err := svc.Checkout(context.Background(), input)
	require.ErrorIs(t, err, inventory.ErrInsufficientStock)
	require.Equal(t, shared.KindValidation, shared.ErrorKind(err))

	require.Equal(t, 10, repo.products["shirt"].stock)
	require.Equal(t, 1, repo.products["socks"].stock)
	require.Empty(t, repo.sales)
	require.Empty(t, idem.keys)
	require.Empty(t, *notifier)
}

func TestCheckoutAllowsNegativeStockWhenConfigured(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, Deps{}, ServiceConfig{AllowNegativeStock: true})

	input := cart("0")
	input.Lines[1].Quantity = 3
	_, err := svc.Checkout(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, -2, repo.products["socks"].stock)
}

func TestCheckoutIdempotencyKey(t *testing.T) {
	repo := newMemorySalesRepo()
	idem := &memoryIdempotency{keys: map[string]bool{}}
	svc := NewService(repo, Deps{Idempotency: idem}, ServiceConfig{})

	input := cart("0")
	input.Lines = input.Lines[:1]
	input.IdempotencyKey = "k-1"
	_, err := svc.Checkout(context.Background(), input)
	require.NoError(t, err)

	input.InvoiceNumber = "INV-OTHER"
	_, err = svc.Checkout(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Equal(t, 8, repo.products["shirt"].stock)
	require.Len(t, repo.sales, 1)
}

func TestCheckoutRejectsBadInput(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, Deps{}, ServiceConfig{})
	ctx := context.Background()

	mismatch := cart("0")
	mismatch.TotalAmount = decimal.NewNullDecimal(dec("249.90"))
	cases := map[string]CheckoutInput{
		"empty cart":       {StoreID: "store-1"},
		"unknown product":  {StoreID: "store-1", Lines: []LineInput{{ProductID: "ghost", Quantity: 1}}},
		"inactive product": {StoreID: "store-1", Lines: []LineInput{{ProductID: "retired", Quantity: 1}}},
		"zero quantity":    {StoreID: "store-1", Lines: []LineInput{{ProductID: "shirt"}}},
		"total mismatch":   mismatch,
		"huge discount":    cart("1000"),
	}
	for name, input := range cases {
		_, err := svc.Checkout(ctx, input)
		require.ErrorIs(t, err, shared.ErrValidation, name)
	}
	require.Equal(t, 10, repo.products["shirt"].stock)
	require.Empty(t, repo.sales)

	within := cart("0")
	within.TotalAmount = decimal.NewNullDecimal(dec("250.004"))
	_, err := svc.Checkout(ctx, within)
	require.NoError(t, err)
}

func TestPartialPaymentThenSettle(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, Deps{}, ServiceConfig{})
	ctx := context.Background()

	input := cart("0")
	input.PaidAmount = decimal.NewNullDecimal(dec("100"))
	input.PaymentMethod = "CARD"
	sale, err := svc.Checkout(ctx, input)
	require.NoError(t, err)
	require.Equal(t, shared.PaymentPartial, sale.PaymentStatus)

	_, err = svc.RecordPayment(ctx, "store-1", sale.ID, PaymentInput{Amount: dec("200")})
	require.ErrorIs(t, err, ErrOverpayment)

	sale, err = svc.RecordPayment(ctx, "store-1", sale.ID, PaymentInput{Amount: dec("150"), Method: "CASH"})
	require.NoError(t, err)
	require.Equal(t, shared.PaymentPaid, sale.PaymentStatus)
	require.Len(t, sale.PaymentHistory, 2)
	require.Equal(t, "CASH", sale.PaymentHistory[1].Method)
	require.True(t, dec("250").Equal(sale.PaidAmount))
}

func TestCheckoutOverpaymentBecomesChange(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, Deps{}, ServiceConfig{})
	ctx := context.Background()

	input := cart("0")
	input.PaidAmount = decimal.NewNullDecimal(dec("300"))
	sale, err := svc.Checkout(ctx, input)
	require.NoError(t, err)
	require.True(t, dec("250").Equal(sale.PaidAmount), sale.PaidAmount.String())
	require.True(t, dec("50").Equal(sale.ChangeAmount), sale.ChangeAmount.String())
	require.Equal(t, shared.PaymentPaid, sale.PaymentStatus)
	require.Len(t, sale.PaymentHistory, 1)
	require.True(t, dec("250").Equal(sale.PaymentHistory[0].Amount))

	_, err = svc.RecordPayment(ctx, "store-1", sale.ID, PaymentInput{Amount: dec("1")})
	require.ErrorIs(t, err, ErrOverpayment)
}

func TestCheckoutDefaultInvoiceNumbersDoNotCollide(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, Deps{}, ServiceConfig{})
	fixed := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	first, err := svc.Checkout(ctx, CheckoutInput{StoreID: "store-1", Lines: []LineInput{{ProductID: "shirt", Quantity: 1}}})
	require.NoError(t, err)
	second, err := svc.Checkout(ctx, CheckoutInput{StoreID: "store-1", Lines: []LineInput{{ProductID: "shirt", Quantity: 1}}})
	require.NoError(t, err)
	require.NotEqual(t, first.InvoiceNumber, second.InvoiceNumber)
	require.Equal(t, 8, repo.products["shirt"].stock)
}

func TestDeleteRestoresStock(t *testing.T) {
	repo := newMemorySalesRepo()
	svc := NewService(repo, Deps{}, ServiceConfig{})
	ctx := context.Background()

	sale, err := svc.Checkout(ctx, cart("0"))
	require.NoError(t, err)
	require.Equal(t, 8, repo.products["shirt"].stock)

	require.NoError(t, svc.Delete(ctx, "store-1", sale.ID))
	require.Equal(t, 10, repo.products["shirt"].stock)
	require.Equal(t, 1, repo.products["socks"].stock)
	require.ErrorIs(t, svc.Delete(ctx, "store-1", sale.ID), shared.ErrNotFound)
}

func TestListValidatesRange(t *testing.T) {
	svc := NewService(newMemorySalesRepo(), Deps{}, ServiceConfig{})
	page, err := svc.List(context.Background(), ListFilters{StoreID: "store-1"})
	require.NoError(t, err)
	require.Equal(t, 0, page.Total)
	require.NotNil(t, page.Data)

	_, err = svc.List(context.Background(), ListFilters{})
	require.ErrorIs(t, err, shared.ErrValidation)
}
