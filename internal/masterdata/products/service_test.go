package products

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/shared"
)

type memoryRepo struct {
	products   map[string]Product
	categories map[string]string
	brands     map[string]string
	refs       map[string]References
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:   map[string]Product{},
		categories: map[string]string{"cat-1": "s1", "cat-2": "s2"},
		brands:     map[string]string{"brand-1": "s1"},
		refs:       map[string]References{},
	}
}

func (m *memoryRepo) List(_ context.Context, filters ListFilters) ([]Product, int, error) {
	var out []Product
	term := strings.ToLower(filters.Search)
	for _, p := range m.products {
		if p.StoreID != filters.StoreID {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(p.Name), term) && !strings.Contains(strings.ToLower(p.SKU), term) {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, storeID, id string) (Product, error) {
	p, ok := m.products[id]
	if !ok || p.StoreID != storeID {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) FindByBarcode(_ context.Context, storeID, barcode string) (Product, error) {
	for _, p := range m.products {
		if p.StoreID == storeID && p.Barcode != nil && *p.Barcode == barcode {
			return p, nil
		}
	}
	return Product{}, shared.ErrNotFound
}

func (m *memoryRepo) LowStock(_ context.Context, storeID string, limit int) ([]Product, error) {
	var out []Product
	for _, p := range m.products {
		if p.StoreID == storeID && p.IsActive && p.StockLevel <= p.MinStockLevel && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryRepo) Create(_ context.Context, p Product) error {
	for _, existing := range m.products {
		if existing.StoreID == p.StoreID && existing.SKU == p.SKU {
			return shared.ErrDuplicate
		}
	}
	m.products[p.ID] = p
	return nil
}

func (m *memoryRepo) Update(_ context.Context, p Product) error {
	current := m.products[p.ID]
	p.StockLevel = current.StockLevel
	m.products[p.ID] = p
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, _ string, id string) error {
	delete(m.products, id)
	return nil
}

func (m *memoryRepo) References(_ context.Context, _ string, id string) (References, error) {
	return m.refs[id], nil
}

func (m *memoryRepo) LinksExist(_ context.Context, storeID, categoryID string, brandID *string) (bool, bool, error) {
	brandOK := true
	if brandID != nil {
		brandOK = m.brands[*brandID] == storeID
	}
	return m.categories[categoryID] == storeID, brandOK, nil
}

type recordingAudit struct {
	actions []string
}

func (r *recordingAudit) Record(_ context.Context, log shared.ActivityLog) error {
	r.actions = append(r.actions, log.Action)
	return nil
}

func shirtInput() Input {
	barcode := " 8991234567890 "
	return Input{
		StoreID:      "s1",
		SKU:          "TS-001",
		Barcode:      &barcode,
		Name:         "Basic T-Shirt",
		CategoryID:   "cat-1",
		BuyingPrice:  decimal.NewFromInt(60),
		SellingPrice: decimal.NewFromInt(100),
		StockLevel:   12,
	}
}

func TestCreateProductDefaults(t *testing.T) {
	audit := &recordingAudit{}
	svc := NewService(newMemoryRepo(), audit, nil)

	p, err := svc.Create(context.Background(), shirtInput())
	require.NoError(t, err)
	require.Equal(t, "basic-t-shirt", p.Slug)
	require.Equal(t, "pcs", p.Unit)
	require.Equal(t, 12, p.StockLevel)
	require.True(t, p.IsActive)
	require.NotNil(t, p.Barcode)
	require.Equal(t, "8991234567890", *p.Barcode)
	require.Equal(t, []string{}, p.Images)
	require.Equal(t, []string{"PRODUCT_CREATE"}, audit.actions)
}

func TestCreateRejectsInvalidProducts(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()

	in := shirtInput()
	in.SellingPrice = decimal.NewFromInt(-1)
	_, err := svc.Create(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = shirtInput()
	in.CategoryID = "cat-2"
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)

	in = shirtInput()
	missing := "brand-9"
	in.BrandID = &missing
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, shirtInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, shirtInput())
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestUpdateKeepsStockLevel(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	p, err := svc.Create(ctx, shirtInput())
	require.NoError(t, err)

	name := "Premium T-Shirt"
	updated, err := svc.Update(ctx, p.ID, Patch{StoreID: "s1", Name: &name, SellingPrice: decimal.NewNullDecimal(decimal.NewFromInt(120))})
	require.NoError(t, err)
	require.Equal(t, "premium-t-shirt", updated.Slug)
	require.Equal(t, 12, updated.StockLevel)
	require.True(t, decimal.NewFromInt(120).Equal(updated.SellingPrice))
	require.True(t, decimal.NewFromInt(60).Equal(updated.BuyingPrice))
	require.True(t, updated.IsActive)
}

func TestDeactivateOnlyKeepsCatalogFields(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	in := shirtInput()
	brand := "brand-1"
	in.BrandID = &brand
	in.Images = []string{"https://cdn.shop.test/shirt.png"}
	in.MinStockLevel = 4
	p, err := svc.Create(ctx, in)
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(ctx, p.ID, Patch{StoreID: "s1", IsActive: &inactive})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, "Basic T-Shirt", updated.Name)
	require.Equal(t, "TS-001", updated.SKU)
	require.Equal(t, "8991234567890", *updated.Barcode)
	require.Equal(t, "brand-1", *updated.BrandID)
	require.Equal(t, "cat-1", updated.CategoryID)
	require.True(t, decimal.NewFromInt(60).Equal(updated.BuyingPrice))
	require.True(t, decimal.NewFromInt(100).Equal(updated.SellingPrice))
	require.Equal(t, 4, updated.MinStockLevel)
	require.Equal(t, []string{"https://cdn.shop.test/shirt.png"}, updated.Images)
	require.Equal(t, 12, updated.StockLevel)

	none := ""
	updated, err = svc.Update(ctx, p.ID, Patch{StoreID: "s1", BrandID: &none, Images: []string{}})
	require.NoError(t, err)
	require.Nil(t, updated.BrandID)
	require.Empty(t, updated.Images)
	require.False(t, updated.IsActive)

	other := "cat-2"
	_, err = svc.Update(ctx, p.ID, Patch{StoreID: "s1", CategoryID: &other})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestFindByBarcodeAndLowStock(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	p, err := svc.Create(ctx, shirtInput())
	require.NoError(t, err)

	found, err := svc.FindByBarcode(ctx, "s1", "8991234567890")
	require.NoError(t, err)
	require.Equal(t, p.ID, found.ID)

	_, err = svc.FindByBarcode(ctx, "s1", "  ")
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.FindByBarcode(ctx, "s2", "8991234567890")
	require.ErrorIs(t, err, shared.ErrNotFound)

	low := shirtInput()
	low.SKU = "TS-002"
	low.Barcode = nil
	low.StockLevel = 2
	low.MinStockLevel = 5
	lowProduct, err := svc.Create(ctx, low)
	require.NoError(t, err)

	items, err := svc.LowStock(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, lowProduct.ID, items[0].ID)

	empty, err := svc.LowStock(ctx, "s2", 10)
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestListSearchesNameAndSKU(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, shirtInput())
	require.NoError(t, err)

	page, err := svc.List(ctx, ListFilters{StoreID: "s1", Search: " ts-00 "})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, shared.DefaultPageSize, page.Pagination.PageSize)

	_, err = svc.List(ctx, ListFilters{})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteReferencedProductFails(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	p, err := svc.Create(ctx, shirtInput())
	require.NoError(t, err)

	repo.refs[p.ID] = References{Sales: 3}
	err = svc.Delete(ctx, "s1", p.ID)
	require.ErrorIs(t, err, shared.ErrReferenced)
	require.Contains(t, repo.products, p.ID)

	repo.refs[p.ID] = References{}
	require.NoError(t, svc.Delete(ctx, "s1", p.ID))
	require.NotContains(t, repo.products, p.ID)
}
