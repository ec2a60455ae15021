package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

type memoryRepo struct {
	movements []Movement
	lastQuery MovementFilter
	stock     map[string]int
}

func (r *memoryRepo) WithLedger(ctx context.Context, fn func(context.Context, TxLedger) error) error {
	snapshot := make(map[string]int, len(r.stock))
	for k, v := range r.stock {
		snapshot[k] = v
	}
	if err := fn(ctx, memoryLedger{repo: r}); err != nil {
		r.stock = snapshot
		return err
	}
	return nil
}

type memoryLedger struct {
	repo *memoryRepo
}

func (l memoryLedger) Adjust(_ context.Context, adj Adjustment) (Movement, error) {
	level, ok := l.repo.stock[adj.ProductID]
	if !ok {
		return Movement{}, shared.ErrNotFound
	}
	if !adj.AllowNegative && level+adj.Delta < 0 {
		return Movement{}, &ShortfallError{ProductID: adj.ProductID, Available: level, Requested: -adj.Delta}
	}
	l.repo.stock[adj.ProductID] = level + adj.Delta
	mv := Movement{StoreID: adj.StoreID, ProductID: adj.ProductID, Delta: adj.Delta, LevelAfter: level + adj.Delta, RefType: adj.RefType, RefID: adj.RefID, Note: adj.Note}
	l.repo.movements = append(l.repo.movements, mv)
	return mv, nil
}

func (l memoryLedger) SetPrices(context.Context, PriceUpdate) error {
	return nil
}

type movementCounter map[string]int

func (c movementCounter) ObserveStockMovement(refType string, delta int) {
	c[refType] += delta
}

func (r *memoryRepo) ListMovements(_ context.Context, filter MovementFilter) ([]Movement, int, error) {
	r.lastQuery = filter
	var out []Movement
	for _, mv := range r.movements {
		if mv.StoreID != filter.StoreID {
			continue
		}
		if filter.ProductID != "" && mv.ProductID != filter.ProductID {
			continue
		}
		out = append(out, mv)
	}
	return out, len(out), nil
}

type allowStores map[string]bool

func (a allowStores) EnsureStore(_ context.Context, storeID string) error {
	if !a[storeID] {
		return shared.ErrForbidden
	}
	return nil
}

func TestListMovementsDefaultsPaging(t *testing.T) {
	repo := &memoryRepo{movements: []Movement{
		{ID: "m1", StoreID: "s1", ProductID: "p1", Delta: 10, LevelAfter: 10, RefType: RefPurchaseOrder},
		{ID: "m2", StoreID: "s1", ProductID: "p1", Delta: -2, LevelAfter: 8, RefType: RefSale},
		{ID: "m3", StoreID: "s2", ProductID: "p9", Delta: 1, LevelAfter: 1, RefType: RefPurchaseOrder},
	}}
	svc := NewService(repo, nil, nil, nil)

	page, err := svc.ListMovements(context.Background(), MovementFilter{StoreID: "s1", ProductID: "p1"})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	require.Equal(t, 2, page.Total)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 50, repo.lastQuery.PageSize)

	_, err = svc.ListMovements(context.Background(), MovementFilter{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestMovementsOperationChecksStore(t *testing.T) {
	repo := &memoryRepo{}
	h := NewHandler(NewService(repo, nil, nil, nil), allowStores{"s1": true})
	registry := bridge.NewRegistry()
	h.Register(registry)

	op, ok := registry.Lookup("products.movements")
	require.True(t, ok)
	require.Equal(t, shared.PermCatalogView, op.Permission)

	_, err := op.Handler(context.Background(), json.RawMessage(`{"storeId":"s2"}`))
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = op.Handler(context.Background(), json.RawMessage(`{"storeId":"s1","refType":"GIFT"}`))
	require.ErrorIs(t, err, shared.ErrValidation)

	data, err := op.Handler(context.Background(), json.RawMessage(`{"storeId":"s1","productId":"p1","pageSize":5}`))
	require.NoError(t, err)
	require.IsType(t, shared.Page[Movement]{}, data)
	require.Equal(t, 5, repo.lastQuery.PageSize)
}

func TestShortfallErrorClassifiesAsValidation(t *testing.T) {
	var err error = &ShortfallError{ProductID: "p1", Available: 1, Requested: 3}
	require.True(t, errors.Is(err, ErrInsufficientStock))
	require.Equal(t, shared.KindValidation, shared.ErrorKind(err))
	require.Contains(t, err.Error(), "p1 has 1 in stock, 3 requested")
}

func TestAdjustRecordsCorrection(t *testing.T) {
	repo := &memoryRepo{stock: map[string]int{"p1": 4}}
	counter := movementCounter{}
	svc := NewService(repo, nil, counter, nil)
	ctx := shared.ContextWithActor(context.Background(), shared.Actor{UserID: "u1"})

	mv, err := svc.Adjust(ctx, AdjustInput{StoreID: "s1", ProductID: "p1", Delta: -3, Note: "damaged in transit"})
	require.NoError(t, err)
	require.Equal(t, 1, mv.LevelAfter)
	require.Equal(t, RefAdjustment, mv.RefType)
	require.NotEmpty(t, mv.RefID)
	require.Equal(t, -3, counter[string(RefAdjustment)])

	_, err = svc.Adjust(ctx, AdjustInput{StoreID: "s1", ProductID: "p1", Delta: -2, Note: "recount"})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, 1, repo.stock["p1"])

	_, err = svc.Adjust(ctx, AdjustInput{StoreID: "s1", ProductID: "p1", Note: "noop"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

type scanRecorder []string

func (r *scanRecorder) EnqueueLowStockScan(_ context.Context, storeID string) error {
	*r = append(*r, storeID)
	return nil
}

func TestAdjustDownQueuesLowStockScan(t *testing.T) {
	repo := &memoryRepo{stock: map[string]int{"p1": 4}}
	scans := &scanRecorder{}
	svc := NewService(repo, nil, nil, nil).WithLowStockScans(scans)
	ctx := context.Background()

	_, err := svc.Adjust(ctx, AdjustInput{StoreID: "s1", ProductID: "p1", Delta: 5, Note: "found"})
	require.NoError(t, err)
	require.Empty(t, *scans)

	_, err = svc.Adjust(ctx, AdjustInput{StoreID: "s1", ProductID: "p1", Delta: -6, Note: "expired"})
	require.NoError(t, err)
	require.Equal(t, []string{"s1"}, []string(*scans))

	_, err = svc.Adjust(ctx, AdjustInput{StoreID: "s1", ProductID: "p1", Delta: -10, Note: "lost"})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Len(t, *scans, 1)
}
