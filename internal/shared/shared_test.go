package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hot Drinks":          "hot-drinks",
		"  Snacks & Sweets  ": "snacks-sweets",
		"--Tea--":             "tea",
		"Brand 2 (Import)":    "brand-2-import",
		"":                    "",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), in)
	}
}

func TestNormalizePage(t *testing.T) {
	page, size := NormalizePage(0, 0, 50)
	require.Equal(t, 1, page)
	require.Equal(t, 50, size)

	page, size = NormalizePage(3, 1000, 20)
	require.Equal(t, 3, page)
	require.Equal(t, MaxPageSize, size)

	require.Equal(t, 0, Offset(1, 20))
	require.Equal(t, 40, Offset(3, 20))
}

func TestNewPage(t *testing.T) {
	page := NewPage[string](nil, 2, 10, 21)
	require.NotNil(t, page.Data)
	require.Empty(t, page.Data)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 21, page.Total)
}

func TestPaymentStatusFor(t *testing.T) {
	total := decimal.RequireFromString("100")
	require.Equal(t, PaymentPending, PaymentStatusFor(decimal.Zero, total))
	require.Equal(t, PaymentPartial, PaymentStatusFor(decimal.RequireFromString("40"), total))
	require.Equal(t, PaymentPaid, PaymentStatusFor(total, total))
	require.True(t, AmountsAgree(decimal.RequireFromString("10.005"), decimal.RequireFromString("10")))
	require.False(t, AmountsAgree(decimal.RequireFromString("10.02"), decimal.RequireFromString("10")))
}

func TestErrorKind(t *testing.T) {
	require.Equal(t, "", ErrorKind(nil))
	require.Equal(t, KindValidation, ErrorKind(fmt.Errorf("%w: name is required", ErrValidation)))
	require.Equal(t, KindReferenced, ErrorKind(fmt.Errorf("%w: in use", ErrReferenced)))
	require.Equal(t, KindUnauthorized, ErrorKind(ErrInvalidCredentials))
	require.Equal(t, KindConflict, ErrorKind(ErrIdempotencyConflict))
	require.Equal(t, KindInternal, ErrorKind(errors.New("dial tcp: refused")))
	require.Equal(t, "An unexpected error occurred. Please try again.", UserSafeMessage(errors.New("dial tcp: refused")))
	require.Equal(t, "not found", UserSafeMessage(ErrNotFound))
}

func TestActorCan(t *testing.T) {
	cashier := Actor{UserID: "u1", Permissions: []string{PermSalesCreate}}
	require.True(t, cashier.Can(PermSalesCreate))
	require.False(t, cashier.Can(PermSalesDelete))
	require.True(t, cashier.Can(""))

	admin := Actor{UserID: "u2", SuperAdmin: true}
	require.True(t, admin.Can(PermStoresManage))
	require.True(t, IsKnownPermission(PermReportsView))
	require.False(t, IsKnownPermission("finance.gl.view"))
}

func TestSessionLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := NewSessionManager(client, "secret", time.Hour)
	ctx := context.Background()

	token, err := sessions.Issue(ctx, Session{Actor: Actor{UserID: "u1", Username: "ana"}, StoreIDs: []string{"s1"}})
	require.NoError(t, err)

	sess, err := sessions.Load(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "u1", sess.Actor.UserID)
	require.Equal(t, []string{"s1"}, sess.StoreIDs)
	require.Equal(t, token, sess.Token)

	_, err = sessions.Load(ctx, token+"x")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = sessions.Load(ctx, "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)

	mr.FastForward(2 * time.Hour)
	_, err = sessions.Load(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)

	token, err = sessions.Issue(ctx, Session{Actor: Actor{UserID: "u1"}})
	require.NoError(t, err)
	require.NoError(t, sessions.Revoke(ctx, token))
	_, err = sessions.Load(ctx, token)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestActorContext(t *testing.T) {
	ctx := ContextWithActor(context.Background(), Actor{UserID: "u9"})
	require.Equal(t, "u9", ActorID(ctx))
	require.Equal(t, "", ActorID(context.Background()))

	ctx = ContextWithSession(context.Background(), &Session{Actor: Actor{UserID: "u3"}})
	require.Equal(t, "u3", ActorID(ctx))
	sess, ok := SessionFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "u3", sess.Actor.UserID)
}

func TestDocumentNumberIsDistinctWithinOneMillisecond(t *testing.T) {
	at := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	first := DocumentNumber("PO", at)
	second := DocumentNumber("PO", at)
	require.Regexp(t, `^PO-1710063000000-[0-9A-F]{6}$`, first)
	require.NotEqual(t, first, second)
}

func TestRoundMoney(t *testing.T) {
	require.Equal(t, "10.13", RoundMoney(decimal.RequireFromString("10.125")).String())
	require.Equal(t, "3", RoundMoney(decimal.RequireFromString("3.0001")).String())
}
