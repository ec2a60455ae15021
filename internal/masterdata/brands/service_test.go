package brands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/shared"
)

type memoryRepo struct {
	brands map[string]Brand
}

func (m *memoryRepo) List(_ context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	var out []Brand
	for _, b := range m.brands {
		if b.StoreID == filters.StoreID {
			out = append(out, b)
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, storeID, id string) (Brand, error) {
	b, ok := m.brands[id]
	if !ok || b.StoreID != storeID {
		return Brand{}, shared.ErrNotFound
	}
	return b, nil
}

func (m *memoryRepo) Create(_ context.Context, b Brand) error {
	for _, existing := range m.brands {
		if existing.StoreID == b.StoreID && existing.Slug == b.Slug {
			return shared.ErrDuplicate
		}
	}
	m.brands[b.ID] = b
	return nil
}

func (m *memoryRepo) Update(_ context.Context, b Brand) error {
	m.brands[b.ID] = b
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, _ string, id string) error {
	delete(m.brands, id)
	return nil
}

func TestCreateDerivesSlugFromName(t *testing.T) {
	svc := NewService(&memoryRepo{brands: map[string]Brand{}}, nil, nil)

	b, err := svc.Create(context.Background(), Input{StoreID: "s1", Name: "O'Reilly & Sons!!"})
	require.NoError(t, err)
	require.Equal(t, "o-reilly-sons", b.Slug)
	require.Equal(t, "O'Reilly & Sons!!", b.Name)

	_, err = svc.Create(context.Background(), Input{StoreID: "s1", Name: "O Reilly Sons"})
	require.ErrorIs(t, err, shared.ErrDuplicate)

	other, err := svc.Create(context.Background(), Input{StoreID: "s2", Name: "O Reilly Sons"})
	require.NoError(t, err)
	require.Equal(t, "o-reilly-sons", other.Slug)
}

func TestUpdateRederivesSlug(t *testing.T) {
	repo := &memoryRepo{brands: map[string]Brand{}}
	svc := NewService(repo, nil, nil)
	b, err := svc.Create(context.Background(), Input{StoreID: "s1", Name: "Acme"})
	require.NoError(t, err)

	name, logo := "Acme Corp.", "https://cdn.shop.test/acme.png"
	b, err = svc.Update(context.Background(), b.ID, Patch{StoreID: "s1", Name: &name, Logo: &logo})
	require.NoError(t, err)
	require.Equal(t, "acme-corp", b.Slug)
	require.Equal(t, "https://cdn.shop.test/acme.png", repo.brands[b.ID].Logo)

	_, err = svc.Update(context.Background(), b.ID, Patch{StoreID: "s2", Name: &name})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateOnlyChangesSentFields(t *testing.T) {
	repo := &memoryRepo{brands: map[string]Brand{}}
	svc := NewService(repo, nil, nil)
	b, err := svc.Create(context.Background(), Input{StoreID: "s1", Name: "Acme", Slug: "acme-brand", Description: "Tools", Logo: "https://cdn.shop.test/a.png"})
	require.NoError(t, err)

	inactive := false
	b, err = svc.Update(context.Background(), b.ID, Patch{StoreID: "s1", IsActive: &inactive})
	require.NoError(t, err)
	require.False(t, b.IsActive)
	require.Equal(t, "Acme", b.Name)
	require.Equal(t, "acme-brand", b.Slug)
	require.Equal(t, "Tools", b.Description)
	require.Equal(t, "https://cdn.shop.test/a.png", b.Logo)

	empty := ""
	b, err = svc.Update(context.Background(), b.ID, Patch{StoreID: "s1", Description: &empty, Logo: &empty})
	require.NoError(t, err)
	require.Empty(t, b.Description)
	require.Empty(t, b.Logo)
	require.Equal(t, "acme-brand", b.Slug)

	bad := "not a uri"
	_, err = svc.Update(context.Background(), b.ID, Patch{StoreID: "s1", Logo: &bad})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDeleteBrandWithProductsFails(t *testing.T) {
	repo := &memoryRepo{brands: map[string]Brand{
		"b1": {ID: "b1", StoreID: "s1", Name: "Acme", ProductCount: 4},
		"b2": {ID: "b2", StoreID: "s1", Name: "Unused"},
	}}
	svc := NewService(repo, nil, nil)

	err := svc.Delete(context.Background(), "s1", "b1")
	require.ErrorIs(t, err, shared.ErrReferenced)
	require.Contains(t, repo.brands, "b1")

	require.NoError(t, svc.Delete(context.Background(), "s1", "b2"))
	require.NotContains(t, repo.brands, "b2")
}
