package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/shared"
)

type memoryRepo struct {
	roles map[string]Role
}

func (m *memoryRepo) List(context.Context, string) ([]Role, error) {
	out := []Role{}
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

func (m *memoryRepo) Get(_ context.Context, id string) (Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return Role{}, shared.ErrNotFound
	}
	return r, nil
}

func (m *memoryRepo) Create(_ context.Context, role Role) error {
	m.roles[role.ID] = role
	return nil
}

func (m *memoryRepo) Update(_ context.Context, role Role) error {
	m.roles[role.ID] = role
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) error {
	delete(m.roles, id)
	return nil
}

func TestCreateNormalizesPermissions(t *testing.T) {
	repo := &memoryRepo{roles: map[string]Role{}}
	svc := NewService(repo, nil, nil)

	role, err := svc.Create(context.Background(), Input{
		Name:        " Cashier ",
		Permissions: []string{shared.PermSalesCreate, shared.PermCatalogView, shared.PermSalesCreate},
	})
	require.NoError(t, err)
	require.Equal(t, "Cashier", role.Name)
	require.Equal(t, []string{shared.PermCatalogView, shared.PermSalesCreate}, role.Permissions)

	_, err = svc.Create(context.Background(), Input{Name: "Hacker", Permissions: []string{"everything"}})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Len(t, repo.roles, 1)
}

func TestDeleteGuardedByAssignedUsers(t *testing.T) {
	repo := &memoryRepo{roles: map[string]Role{
		"r1": {ID: "r1", Name: "Manager", UserCount: 2},
		"r2": {ID: "r2", Name: "Unused"},
	}}
	svc := NewService(repo, nil, nil)

	err := svc.Delete(context.Background(), "r1")
	require.ErrorIs(t, err, shared.ErrReferenced)
	require.Equal(t, shared.KindReferenced, shared.ErrorKind(err))
	require.Contains(t, repo.roles, "r1")

	require.NoError(t, svc.Delete(context.Background(), "r2"))
	require.NotContains(t, repo.roles, "r2")
	require.ErrorIs(t, svc.Delete(context.Background(), "r2"), shared.ErrNotFound)
}

func TestUpdateReplacesPermissions(t *testing.T) {
	repo := &memoryRepo{roles: map[string]Role{"r1": {ID: "r1", Name: "Clerk", Permissions: []string{shared.PermSalesCreate}}}}
	svc := NewService(repo, nil, nil)

	role, err := svc.Update(context.Background(), "r1", Input{Permissions: []string{shared.PermReportsView}})
	require.NoError(t, err)
	require.Equal(t, "Clerk", role.Name)
	require.Equal(t, []string{shared.PermReportsView}, repo.roles["r1"].Permissions)
	require.ElementsMatch(t, shared.AllPermissions(), svc.Permissions())
}
