package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/shared"
)

type stubRepo struct {
	accounts map[string]*Account
	stores   []StoreRef
	touched  []string
}

func (s *stubRepo) FindByLogin(_ context.Context, login string) (*Account, error) {
	for _, a := range s.accounts {
		if a.Username == login || a.Email == login {
			return a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *stubRepo) FindByID(_ context.Context, id string) (*Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return a, nil
}

func (s *stubRepo) StoresForUser(_ context.Context, _ string, all bool) ([]StoreRef, error) {
	if all {
		return append(s.stores, StoreRef{ID: "store-9", Name: "Warehouse", Code: "WH"}), nil
	}
	return s.stores, nil
}

func (s *stubRepo) TouchLogin(_ context.Context, userID string, _ time.Time) error {
	s.touched = append(s.touched, userID)
	return nil
}

func newTestService(t *testing.T) (*Service, *stubRepo, *shared.SessionManager) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &stubRepo{
		accounts: map[string]*Account{
			"u-1": {ID: "u-1", Username: "cashier", Email: "cashier@shop.test", PasswordHash: string(hash), IsActive: true, RoleID: "r-1", RoleName: "Cashier", Permissions: []string{shared.PermSalesCreate}},
			"u-2": {ID: "u-2", Username: "former", Email: "former@shop.test", PasswordHash: string(hash), IsActive: false, RoleID: "r-1"},
		},
		stores: []StoreRef{{ID: "store-1", Name: "Main Street", Code: "MAIN"}},
	}
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "test-secret", time.Hour)
	return NewService(repo, sessions, nil, nil), repo, sessions
}

func TestLoginIssuesSession(t *testing.T) {
	svc, repo, sessions := newTestService(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "cashier", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "u-1", result.User.ID)
	require.Equal(t, []StoreRef{{ID: "store-1", Name: "Main Street", Code: "MAIN"}}, result.Stores)
	require.Equal(t, []string{"u-1"}, repo.touched)

	sess, err := sessions.Load(ctx, result.Token)
	require.NoError(t, err)
	require.Equal(t, "u-1", sess.Actor.UserID)
	require.Equal(t, []string{"store-1"}, sess.StoreIDs)
	require.True(t, sess.Actor.Can(shared.PermSalesCreate))
	require.False(t, sess.Actor.Can(shared.PermUsersManage))

	_, err = svc.Login(ctx, "cashier@shop.test", "s3cret-pass")
	require.NoError(t, err)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	for name, creds := range map[string][2]string{
		"wrong password": {"cashier", "nope"},
		"unknown user":   {"ghost", "s3cret-pass"},
		"inactive user":  {"former", "s3cret-pass"},
		"empty":          {"", ""},
	} {
		_, err := svc.Login(ctx, creds[0], creds[1])
		require.ErrorIs(t, err, shared.ErrInvalidCredentials, name)
		require.Equal(t, shared.KindUnauthorized, shared.ErrorKind(err), name)
	}
	require.Empty(t, repo.touched)
}

func TestLogoutRevokesAndMeReloads(t *testing.T) {
	svc, repo, sessions := newTestService(t)
	ctx := context.Background()

	result, err := svc.Login(ctx, "cashier", "s3cret-pass")
	require.NoError(t, err)
	sess, err := sessions.Load(ctx, result.Token)
	require.NoError(t, err)
	sessCtx := shared.ContextWithSession(ctx, sess)

	me, err := svc.Me(sessCtx)
	require.NoError(t, err)
	require.Equal(t, "cashier", me.User.Username)
	require.Empty(t, me.Token)

	repo.accounts["u-1"].IsActive = false
	_, err = svc.Me(sessCtx)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	require.NoError(t, svc.Logout(sessCtx))
	_, err = sessions.Load(ctx, result.Token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	require.ErrorIs(t, svc.Logout(ctx), shared.ErrUnauthorized)
}

func TestLoginOverBridgeOmitsPasswordHash(t *testing.T) {
	svc, _, sessions := newTestService(t)
	registry := bridge.NewRegistry()
	NewHandler(nil, svc).Register(registry)
	h := bridge.NewHandler(registry, sessions, nil, nil)

	env := h.Invoke(context.Background(), "auth.login", "", json.RawMessage(`{"username":"cashier","password":"s3cret-pass"}`))
	require.True(t, env.Success, env.Error)
	raw, err := json.Marshal(env.Data)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "password")
	require.Contains(t, string(raw), `"token"`)

	env = h.Invoke(context.Background(), "auth.login", "", json.RawMessage(`{"username":"cashier"}`))
	require.False(t, env.Success)
	require.Equal(t, shared.KindValidation, env.Code)
}
