package suppliers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/shared"
)

type memoryRepo struct {
	suppliers map[string]Supplier
}

func (m *memoryRepo) List(_ context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	var out []Supplier
	for _, s := range m.suppliers {
		if s.StoreID == filters.StoreID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, storeID, id string) (Supplier, error) {
	s, ok := m.suppliers[id]
	if !ok || s.StoreID != storeID {
		return Supplier{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryRepo) Create(_ context.Context, s Supplier) error {
	for _, existing := range m.suppliers {
		if existing.StoreID == s.StoreID && existing.Name == s.Name {
			return shared.ErrDuplicate
		}
	}
	m.suppliers[s.ID] = s
	return nil
}

func (m *memoryRepo) Update(_ context.Context, s Supplier) error {
	m.suppliers[s.ID] = s
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, _ string, id string) error {
	delete(m.suppliers, id)
	return nil
}

func TestCreateSupplier(t *testing.T) {
	repo := &memoryRepo{suppliers: map[string]Supplier{}}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	sup, err := svc.Create(ctx, Input{StoreID: "s1", Name: "  PT Sumber Makmur ", Email: " Sales@Sumber.Test "})
	require.NoError(t, err)
	require.Equal(t, "PT Sumber Makmur", sup.Name)
	require.Equal(t, "sales@sumber.test", sup.Email)
	require.True(t, sup.IsActive)

	_, err = svc.Create(ctx, Input{StoreID: "s1", Name: "PT Sumber Makmur"})
	require.ErrorIs(t, err, shared.ErrDuplicate)

	_, err = svc.Create(ctx, Input{StoreID: "s1", Name: " "})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Create(ctx, Input{StoreID: "s1", Name: "Bad Mail", Email: "nope"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdateSupplierDeactivates(t *testing.T) {
	repo := &memoryRepo{suppliers: map[string]Supplier{}}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	sup, err := svc.Create(ctx, Input{StoreID: "s1", Name: "Acme Wholesale"})
	require.NoError(t, err)

	phone := " 0812 "
	updated, err := svc.Update(ctx, sup.ID, Patch{StoreID: "s1", Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, "0812", repo.suppliers[sup.ID].Phone)
	require.Equal(t, "Acme Wholesale", updated.Name)
	require.True(t, updated.IsActive)

	inactive := false
	updated, err = svc.Update(ctx, sup.ID, Patch{StoreID: "s1", IsActive: &inactive})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
	require.Equal(t, "0812", updated.Phone)
	require.Equal(t, "Acme Wholesale", updated.Name)

	blank := ""
	_, err = svc.Update(ctx, sup.ID, Patch{StoreID: "s1", Name: &blank})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Update(ctx, sup.ID, Patch{StoreID: "s2", IsActive: &inactive})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteSupplierWithOrdersFails(t *testing.T) {
	repo := &memoryRepo{suppliers: map[string]Supplier{
		"sup-1": {ID: "sup-1", StoreID: "s1", Name: "Busy", PurchaseOrders: 2},
		"sup-2": {ID: "sup-2", StoreID: "s1", Name: "Idle"},
	}}
	svc := NewService(repo, nil, nil)

	err := svc.Delete(context.Background(), "s1", "sup-1")
	require.ErrorIs(t, err, shared.ErrReferenced)
	require.Contains(t, repo.suppliers, "sup-1")

	require.NoError(t, svc.Delete(context.Background(), "s1", "sup-2"))
	require.NotContains(t, repo.suppliers, "sup-2")
}
