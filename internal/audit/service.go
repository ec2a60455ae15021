// Package audit serves the activity timeline recorded by every mutating
// operation.
package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// Repository reads activity log entries.
type Repository interface {
	List(ctx context.Context, filter shared.ActivityFilter) ([]shared.ActivityLog, int, error)
}

// ScopePort resolves which stores the actor may see.
type ScopePort interface {
	AccessibleStores(ctx context.Context) (bool, []string, error)
	EnsureStore(ctx context.Context, storeID string) error
}

// Service reads the activity timeline.
type Service struct {
	repo  Repository
	scope ScopePort
	now   func() time.Time
}

// NewService builds the timeline service.
func NewService(repo Repository, scope ScopePort) *Service {
	return &Service{repo: repo, scope: scope, now: time.Now}
}

// Timeline pages activity entries, newest first. Without a storeId the
// result covers every store the actor can access.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (shared.Page[shared.ActivityLog], error) {
	filter, err := s.resolve(ctx, filters)
	if err != nil {
		return shared.Page[shared.ActivityLog]{}, err
	}
	filter.Page, filter.PageSize = shared.NormalizePage(filters.Page, filters.PageSize, defaultPageSize)
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return shared.Page[shared.ActivityLog]{}, err
	}
	return shared.NewPage(rows, filter.Page, filter.PageSize, total), nil
}

// Export renders matching entries as CSV, capped at maxExportRows.
func (s *Service) Export(ctx context.Context, filters TimelineFilters) (Export, error) {
	filter, err := s.resolve(ctx, filters)
	if err != nil {
		return Export{}, err
	}
	filter.PageSize = shared.MaxPageSize
	var rows []shared.ActivityLog
	for filter.Page = 1; len(rows) < maxExportRows; filter.Page++ {
		batch, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return Export{}, err
		}
		rows = append(rows, batch...)
		if len(batch) < filter.PageSize || len(rows) >= total {
			break
		}
	}
	if len(rows) > maxExportRows {
		rows = rows[:maxExportRows]
	}
	content, err := WriteCSV(rows)
	if err != nil {
		return Export{}, err
	}
	return Export{
		Filename:    fmt.Sprintf("activity-%s.csv", s.now().UTC().Format("20060102-150405")),
		ContentType: "text/csv",
		Content:     string(content),
		Rows:        len(rows),
	}, nil
}

func (s *Service) resolve(ctx context.Context, filters TimelineFilters) (shared.ActivityFilter, error) {
	if !filters.From.IsZero() && !filters.To.IsZero() {
		if filters.To.Before(filters.From) {
			return shared.ActivityFilter{}, fmt.Errorf("%w: date range end precedes start", shared.ErrValidation)
		}
		if filters.To.Sub(filters.From) > maxDateRange {
			return shared.ActivityFilter{}, fmt.Errorf("%w: date range exceeds 90 days", shared.ErrValidation)
		}
	}
	filter := shared.ActivityFilter{
		StoreID:  strings.TrimSpace(filters.StoreID),
		Entity:   strings.TrimSpace(filters.Entity),
		EntityID: strings.TrimSpace(filters.EntityID),
		Action:   strings.TrimSpace(filters.Action),
		UserID:   strings.TrimSpace(filters.UserID),
		From:     filters.From,
		To:       filters.To,
	}
	if filter.StoreID != "" {
		return filter, s.scope.EnsureStore(ctx, filter.StoreID)
	}
	all, ids, err := s.scope.AccessibleStores(ctx)
	if err != nil {
		return shared.ActivityFilter{}, err
	}
	if !all {
		filter.StoreIDs = append([]string{}, ids...)
	}
	return filter, nil
}

var csvHeader = []string{"at", "userId", "storeId", "action", "entity", "entityId", "meta"}

// WriteCSV renders activity rows with a header line.
func WriteCSV(rows []shared.ActivityLog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, row := range rows {
		meta := ""
		if len(row.Meta) > 0 {
			raw, err := json.Marshal(row.Meta)
			if err != nil {
				return nil, err
			}
			meta = string(raw)
		}
		record := []string{row.At.UTC().Format(time.RFC3339), row.UserID, row.StoreID, row.Action, row.Entity, row.EntityID, meta}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
