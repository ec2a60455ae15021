// Package reports computes cached sales reports per store.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/tillpoint/tillpoint/internal/shared"
)

const (
	defaultWindow   = 30 * 24 * time.Hour
	defaultTopLimit = 10
	dashboardTop    = 5
	dashboardLow    = 10
)

// Service coordinates report queries with the cache layer.
type Service struct {
	repo   Repository
	cache  *Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewService wires a Repository with a Cache helper.
func NewService(repo Repository, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// SalesSummary aggregates count, revenue, profit, discount, tax and the
// average ticket of [From, To). The window defaults to the last 30 days.
func (s *Service) SalesSummary(ctx context.Context, filter SummaryFilter) (SalesSummary, error) {
	from, to, err := s.window(filter.From, filter.To)
	if err != nil {
		return SalesSummary{}, err
	}
	key, err := s.cache.BuildKey(ctx, filter.StoreID, "summary", stamp(from), stamp(to))
	if err != nil {
		return SalesSummary{}, err
	}
	var out SalesSummary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		summary, err := s.repo.SalesSummary(ctx, filter.StoreID, from, to)
		if err != nil {
			return nil, err
		}
		if summary.Count > 0 {
			summary.AverageTicket = summary.Revenue.Div(decimal.NewFromInt(int64(summary.Count))).Round(2)
		}
		return summary, nil
	})
	return out, err
}

// TopProducts ranks products by quantity sold in the window.
func (s *Service) TopProducts(ctx context.Context, filter TopFilter) ([]ProductSales, error) {
	from, to, err := s.window(filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTopLimit
	}
	key, err := s.cache.BuildKey(ctx, filter.StoreID, "top", stamp(from), stamp(to), strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	out := []ProductSales{}
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		items, err := s.repo.TopProducts(ctx, filter.StoreID, from, to, limit)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []ProductSales{}
		}
		return items, nil
	})
	return out, err
}

// Dashboard composes today's and this month's summaries, the month's top
// products and the low-stock list. The parts load concurrently.
func (s *Service) Dashboard(ctx context.Context, storeID string) (Dashboard, error) {
	now := s.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	tomorrow := day.AddDate(0, 0, 1)

	out := Dashboard{GeneratedAt: now}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.SalesSummary(gctx, SummaryFilter{StoreID: storeID, From: day, To: tomorrow})
		out.Today = summary
		return err
	})
	g.Go(func() error {
		summary, err := s.SalesSummary(gctx, SummaryFilter{StoreID: storeID, From: month, To: tomorrow})
		out.Month = summary
		return err
	})
	g.Go(func() error {
		items, err := s.TopProducts(gctx, TopFilter{StoreID: storeID, From: month, To: tomorrow, Limit: dashboardTop})
		out.TopProducts = items
		return err
	})
	g.Go(func() error {
		items, total, err := s.repo.LowStock(gctx, storeID, dashboardLow)
		if items == nil {
			items = []LowStockItem{}
		}
		out.LowStock, out.LowStockCount = items, total
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return out, nil
}

// Warmup retires the store's cached reports and primes the dashboard.
func (s *Service) Warmup(ctx context.Context, storeID string) error {
	ver, err := s.cache.Bump(ctx, storeID)
	if err != nil {
		return fmt.Errorf("reports: bump cache of %s: %w", storeID, err)
	}
	if _, err := s.Dashboard(ctx, storeID); err != nil {
		return fmt.Errorf("reports: prime dashboard of %s: %w", storeID, err)
	}
	s.logger.Debug("report cache warmed", slog.String("store_id", storeID), slog.Int64("version", ver))
	return nil
}

func (s *Service) window(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultWindow)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: report window end must follow its start", shared.ErrValidation)
	}
	return from.UTC(), to.UTC(), nil
}

func stamp(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
