package audit

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/shared"
)

type stubRepo struct {
	rows  []shared.ActivityLog
	calls []shared.ActivityFilter
}

func (s *stubRepo) List(_ context.Context, filter shared.ActivityFilter) ([]shared.ActivityLog, int, error) {
	s.calls = append(s.calls, filter)
	start := shared.Offset(filter.Page, filter.PageSize)
	if start >= len(s.rows) {
		return nil, len(s.rows), nil
	}
	end := start + filter.PageSize
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[start:end], len(s.rows), nil
}

type stubScope struct {
	all bool
	ids []string
}

func (s stubScope) AccessibleStores(context.Context) (bool, []string, error) {
	return s.all, s.ids, nil
}

func (s stubScope) EnsureStore(_ context.Context, storeID string) error {
	if s.all {
		return nil
	}
	for _, id := range s.ids {
		if id == storeID {
			return nil
		}
	}
	return shared.ErrForbidden
}

func TestTimelineScopesToAccessibleStores(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, stubScope{ids: []string{"s1", "s2"}})

	page, err := svc.Timeline(context.Background(), TimelineFilters{Action: " login "})
	require.NoError(t, err)
	require.NotNil(t, page.Data)
	require.Len(t, repo.calls, 1)
	require.Equal(t, []string{"s1", "s2"}, repo.calls[0].StoreIDs)
	require.Equal(t, "login", repo.calls[0].Action)
	require.Equal(t, defaultPageSize, repo.calls[0].PageSize)

	_, err = svc.Timeline(context.Background(), TimelineFilters{StoreID: "s9"})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestTimelineAllStoresLeavesScopeOpen(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, stubScope{all: true})
	_, err := svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Nil(t, repo.calls[0].StoreIDs)
}

func TestTimelineRejectsBadRange(t *testing.T) {
	svc := NewService(&stubRepo{}, stubScope{all: true})
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Timeline(context.Background(), TimelineFilters{From: from, To: from.Add(-time.Hour)})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.Timeline(context.Background(), TimelineFilters{From: from, To: from.AddDate(0, 4, 0)})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestExportPagesThroughRows(t *testing.T) {
	at := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)
	repo := &stubRepo{}
	for i := 0; i < 250; i++ {
		repo.rows = append(repo.rows, shared.ActivityLog{
			UserID: "u1", StoreID: "s1", Action: "SALE_CREATE", Entity: "sale", EntityID: fmt.Sprintf("sale-%d", i), At: at,
		})
	}
	repo.rows[0].Meta = map[string]any{"invoice": "INV-1, A"}
	svc := NewService(repo, stubScope{all: true})
	svc.now = func() time.Time { return at }

	out, err := svc.Export(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	require.Equal(t, 250, out.Rows)
	require.Equal(t, "activity-20240310-100000.csv", out.Filename)
	require.Len(t, repo.calls, 2)

	lines := strings.Split(strings.TrimSpace(out.Content), "\n")
	require.Len(t, lines, 251)
	require.Equal(t, "at,userId,storeId,action,entity,entityId,meta", lines[0])
	require.Equal(t, `2024-03-10T10:00:00Z,u1,s1,SALE_CREATE,sale,sale-0,"{""invoice"":""INV-1, A""}"`, lines[1])
}
