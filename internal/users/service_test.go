package users

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillpoint/tillpoint/internal/shared"
)

type memoryRepo struct {
	users  map[string]User
	hashes map[string]string
	roles  map[string]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[string]User{}, hashes: map[string]string{}, roles: map[string]bool{"role-cashier": true}}
}

func (m *memoryRepo) List(_ context.Context, _ ListFilters) ([]User, int, error) {
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Get(_ context.Context, id string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) Create(_ context.Context, u User, hash string) error {
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return shared.ErrDuplicate
		}
	}
	m.users[u.ID] = u
	m.hashes[u.ID] = hash
	return nil
}

func (m *memoryRepo) Update(_ context.Context, u User, hash string) error {
	if _, ok := m.users[u.ID]; !ok {
		return shared.ErrNotFound
	}
	m.users[u.ID] = u
	if hash != "" {
		m.hashes[u.ID] = hash
	}
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryRepo) RoleExists(_ context.Context, roleID string) (bool, error) {
	return m.roles[roleID], nil
}

func (m *memoryRepo) SetStores(_ context.Context, userID string, storeIDs []string) error {
	u, ok := m.users[userID]
	if !ok {
		return shared.ErrNotFound
	}
	u.StoreIDs = storeIDs
	m.users[userID] = u
	return nil
}

func newService(repo *memoryRepo) *Service {
	return NewService(repo, nil, nil, bcrypt.MinCost)
}

func TestCreateHashesPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo)

	user, err := svc.Create(context.Background(), CreateInput{
		Username: "ana", Email: "Ana@Shop.Test", Password: "correct-horse", RoleID: "role-cashier",
		StoreIDs: []string{"s2", "s1", "s2"},
	})
	require.NoError(t, err)
	require.Equal(t, "ana@shop.test", user.Email)
	require.True(t, user.IsActive)
	require.Equal(t, []string{"s1", "s2"}, user.StoreIDs)

	hash := repo.hashes[user.ID]
	require.NotEqual(t, "correct-horse", hash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct-horse")))

	raw, err := json.Marshal(user)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "password")
	require.NotContains(t, string(raw), hash)

	_, err = svc.Create(context.Background(), CreateInput{Username: "ana", Email: "x@shop.test", Password: "correct-horse", RoleID: "role-cashier"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateRequiresKnownRoleAndPassword(t *testing.T) {
	svc := newService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateInput{Username: "bo", Email: "bo@shop.test", Password: "long-enough", RoleID: "role-ghost"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{Username: "bo", Email: "bo@shop.test", Password: "short", RoleID: "role-cashier"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpdatePasswordOnlyWhenGiven(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateInput{Username: "cy", Email: "cy@shop.test", Password: "first-pass", RoleID: "role-cashier"})
	require.NoError(t, err)
	original := repo.hashes[user.ID]

	_, err = svc.Update(ctx, user.ID, UpdateInput{Username: "cy", Email: "cy@shop.test", FullName: "Cy Young", RoleID: "role-cashier"})
	require.NoError(t, err)
	require.Equal(t, original, repo.hashes[user.ID])
	require.Equal(t, "Cy Young", repo.users[user.ID].FullName)

	_, err = svc.Update(ctx, user.ID, UpdateInput{Username: "cy", Email: "cy@shop.test", Password: "second-pass", RoleID: "role-cashier"})
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.hashes[user.ID]), []byte("second-pass")))
}

func TestActorCannotRemoveThemselves(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo)

	user, err := svc.Create(context.Background(), CreateInput{Username: "di", Email: "di@shop.test", Password: "secret-pass", RoleID: "role-cashier"})
	require.NoError(t, err)
	ctx := shared.ContextWithActor(context.Background(), shared.Actor{UserID: user.ID})

	require.ErrorIs(t, svc.Delete(ctx, user.ID), shared.ErrValidation)
	inactive := false
	_, err = svc.Update(ctx, user.ID, UpdateInput{Username: "di", Email: "di@shop.test", RoleID: "role-cashier", IsActive: &inactive})
	require.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, svc.Delete(context.Background(), user.ID))
	require.ErrorIs(t, svc.Delete(context.Background(), user.ID), shared.ErrNotFound)
}

func TestSetStoresReplacesLinks(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo)
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateInput{Username: "ed", Email: "ed@shop.test", Password: "secret-pass", RoleID: "role-cashier", StoreIDs: []string{"s1"}})
	require.NoError(t, err)

	user, err = svc.SetStores(ctx, user.ID, []string{"s3", " ", "s2"})
	require.NoError(t, err)
	require.Equal(t, []string{"s2", "s3"}, user.StoreIDs)

	_, err = svc.SetStores(ctx, "missing", nil)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
