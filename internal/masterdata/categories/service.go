package categories

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// Service manages categories.
type Service struct {
	repo   Repository
	audit  ActivityPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs Service.
func NewService(repo Repository, audit ActivityPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List pages categories of a store.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[Category], error) {
	if filters.StoreID == "" {
		return shared.Page[Category]{}, fmt.Errorf("%w: storeId is required", shared.ErrValidation)
	}
	filters.Page, filters.PageSize = shared.NormalizePage(filters.Page, filters.PageSize, 50)
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return shared.Page[Category]{}, err
	}
	return shared.NewPage(items, filters.Page, filters.PageSize, total), nil
}

// Get loads one category.
func (s *Service) Get(ctx context.Context, storeID, id string) (Category, error) {
	return s.repo.Get(ctx, storeID, id)
}

// Create inserts a category with a derived slug.
func (s *Service) Create(ctx context.Context, in Input) (Category, error) {
	in, err := normalize(in)
	if err != nil {
		return Category{}, err
	}
	id := uuid.NewString()
	if err := s.checkParent(ctx, in.StoreID, id, in.ParentID); err != nil {
		return Category{}, err
	}
	now := s.now()
	c := Category{ID: id, StoreID: in.StoreID, IsActive: true, CreatedAt: now, UpdatedAt: now}
	apply(&c, in)
	if err := s.repo.Create(ctx, c); err != nil {
		return Category{}, err
	}
	s.record(ctx, "CATEGORY_CREATE", c)
	return s.repo.Get(ctx, c.StoreID, c.ID)
}

// Update applies the fields present in p. A new name without a slug
// re-derives the slug. Moving a category under one of its descendants is
// rejected.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Category, error) {
	c, err := s.repo.Get(ctx, p.StoreID, id)
	if err != nil {
		return Category{}, err
	}
	in, err := normalize(merge(c, p))
	if err != nil {
		return Category{}, err
	}
	if p.ParentID != nil {
		if err := s.checkParent(ctx, c.StoreID, id, in.ParentID); err != nil {
			return Category{}, err
		}
	}
	apply(&c, in)
	c.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, c); err != nil {
		return Category{}, err
	}
	s.record(ctx, "CATEGORY_UPDATE", c)
	return s.repo.Get(ctx, c.StoreID, c.ID)
}

// Delete removes a category that has no child categories and no products.
func (s *Service) Delete(ctx context.Context, storeID, id string) error {
	c, err := s.repo.Get(ctx, storeID, id)
	if err != nil {
		return err
	}
	refs, err := s.repo.References(ctx, storeID, id)
	if err != nil {
		return err
	}
	if refs.Products > 0 {
		return fmt.Errorf("%w: category %s has %d products", shared.ErrReferenced, c.Name, refs.Products)
	}
	if refs.Children > 0 {
		return fmt.Errorf("%w: category %s has %d subcategories", shared.ErrReferenced, c.Name, refs.Children)
	}
	if err := s.repo.Delete(ctx, storeID, id); err != nil {
		return err
	}
	s.record(ctx, "CATEGORY_DELETE", c)
	return nil
}

// merge overlays p on the stored category.
func merge(c Category, p Patch) Input {
	in := Input{
		StoreID:     c.StoreID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		IsActive:    p.IsActive,
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) != c.Name {
		in.Name = *p.Name
		in.Slug = ""
	}
	if p.Slug != nil {
		in.Slug = *p.Slug
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.ParentID != nil {
		in.ParentID = p.ParentID
	}
	return in
}

func apply(c *Category, in Input) {
	c.Name = in.Name
	c.Slug = in.Slug
	c.Description = in.Description
	c.ParentID = in.ParentID
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}
}

func (s *Service) record(ctx context.Context, action string, c Category) {
	if s.audit == nil {
		return
	}
	entry := shared.ActivityLog{StoreID: c.StoreID, Action: action, Entity: "category", EntityID: c.ID, Meta: map[string]any{"slug": c.Slug}}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("record category activity", slog.String("action", action), slog.Any("error", err))
	}
}
