package brands

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// Service manages brands.
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

// List pages brands of a store.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) (shared.Page[Brand], error) {
	if filters.StoreID == "" {
		return shared.Page[Brand]{}, fmt.Errorf("%w: storeId is required", shared.ErrValidation)
	}
	filters.Page, filters.PageSize = shared.NormalizePage(filters.Page, filters.PageSize, 50)
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return shared.Page[Brand]{}, err
	}
	return shared.NewPage(items, filters.Page, filters.PageSize, total), nil
}

// Get loads one brand.
func (s *Service) Get(ctx context.Context, storeID, id string) (Brand, error) {
	return s.repo.Get(ctx, storeID, id)
}

// Create inserts a brand; the slug is derived from the name unless given.
func (s *Service) Create(ctx context.Context, in Input) (Brand, error) {
	in, err := normalize(in)
	if err != nil {
		return Brand{}, err
	}
	now := s.now()
	b := Brand{ID: uuid.NewString(), StoreID: in.StoreID, IsActive: true, CreatedAt: now, UpdatedAt: now}
	apply(&b, in)
	if err := s.repo.Create(ctx, b); err != nil {
		return Brand{}, err
	}
	s.record(ctx, "BRAND_CREATE", b)
	return b, nil
}

// Update applies the fields present in p. A new name without a slug
// re-derives the slug.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Brand, error) {
	b, err := s.repo.Get(ctx, p.StoreID, id)
	if err != nil {
		return Brand{}, err
	}
	in, err := normalize(merge(b, p))
	if err != nil {
		return Brand{}, err
	}
	apply(&b, in)
	b.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, b); err != nil {
		return Brand{}, err
	}
	s.record(ctx, "BRAND_UPDATE", b)
	return b, nil
}

// Delete removes a brand no product references.
func (s *Service) Delete(ctx context.Context, storeID, id string) error {
	b, err := s.repo.Get(ctx, storeID, id)
	if err != nil {
		return err
	}
	if b.ProductCount > 0 {
		return fmt.Errorf("%w: brand %s has %d products", shared.ErrReferenced, b.Name, b.ProductCount)
	}
	if err := s.repo.Delete(ctx, storeID, id); err != nil {
		return err
	}
	s.record(ctx, "BRAND_DELETE", b)
	return nil
}

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, fmt.Errorf("%w: brand name is required", shared.ErrValidation)
	}
	source := in.Slug
	if strings.TrimSpace(source) == "" {
		source = in.Name
	}
	in.Slug = shared.Slugify(source)
	if in.Slug == "" {
		return in, fmt.Errorf("%w: brand name must contain letters or digits", shared.ErrValidation)
	}
	in.Logo = strings.TrimSpace(in.Logo)
	if in.Logo != "" {
		if u, err := url.Parse(in.Logo); err != nil || u.Scheme == "" {
			return in, fmt.Errorf("%w: brand logo must be a URI", shared.ErrValidation)
		}
	}
	return in, nil
}

func merge(b Brand, p Patch) Input {
	in := Input{StoreID: b.StoreID, Name: b.Name, Slug: b.Slug, Description: b.Description, Logo: b.Logo, IsActive: p.IsActive}
	if p.Name != nil && strings.TrimSpace(*p.Name) != b.Name {
		in.Name = *p.Name
		in.Slug = ""
	}
	if p.Slug != nil {
		in.Slug = *p.Slug
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	if p.Logo != nil {
		in.Logo = *p.Logo
	}
	return in
}

func apply(b *Brand, in Input) {
	b.Name = in.Name
	b.Slug = in.Slug
	b.Description = in.Description
	b.Logo = in.Logo
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
}

func (s *Service) record(ctx context.Context, action string, b Brand) {
	if s.audit == nil {
		return
	}
	entry := shared.ActivityLog{StoreID: b.StoreID, Action: action, Entity: "brand", EntityID: b.ID, Meta: map[string]any{"slug": b.Slug}}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("record brand activity", slog.String("action", action), slog.Any("error", err))
	}
}
