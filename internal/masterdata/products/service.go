package products

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

// Service manages products.
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

// List pages products; search matches name, sku or barcode.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[Product], error) {
	if filters.StoreID == "" {
		return shared.Page[Product]{}, fmt.Errorf("%w: storeId is required", shared.ErrValidation)
	}
	filters.Search = strings.TrimSpace(filters.Search)
	filters.Page, filters.PageSize = shared.NormalizePage(filters.Page, filters.PageSize, shared.DefaultPageSize)
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return shared.Page[Product]{}, err
	}
	return shared.NewPage(items, filters.Page, filters.PageSize, total), nil
}

// Get loads one product.
func (s *Service) Get(ctx context.Context, storeID, id string) (Product, error) {
	return s.repo.Get(ctx, storeID, id)
}

// FindByBarcode resolves a scanned barcode.
func (s *Service) FindByBarcode(ctx context.Context, storeID, barcode string) (Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Product{}, fmt.Errorf("%w: barcode is required", shared.ErrValidation)
	}
	return s.repo.FindByBarcode(ctx, storeID, barcode)
}

// LowStock lists active products at or below their minimum stock level.
func (s *Service) LowStock(ctx context.Context, storeID string, limit int) ([]Product, error) {
	if limit <= 0 || limit > shared.MaxPageSize {
		limit = shared.MaxPageSize
	}
	items, err := s.repo.LowStock(ctx, storeID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Product{}
	}
	return items, nil
}

// Create inserts a product. A positive StockLevel is booked as opening stock.
func (s *Service) Create(ctx context.Context, in Input) (Product, error) {
	in, err := normalize(in)
	if err != nil {
		return Product{}, err
	}
	if err := s.checkLinks(ctx, in); err != nil {
		return Product{}, err
	}
	now := s.now()
	p := Product{ID: uuid.NewString(), StoreID: in.StoreID, StockLevel: in.StockLevel, IsActive: true, CreatedAt: now, UpdatedAt: now}
	apply(&p, in)
	if err := s.repo.Create(ctx, p); err != nil {
		return Product{}, err
	}
	s.record(ctx, "PRODUCT_CREATE", p)
	return s.repo.Get(ctx, p.StoreID, p.ID)
}

// Update applies the catalog fields present in patch. Stock is left to the
// ledger; a patch of only isActive false is the soft delete.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Product, error) {
	p, err := s.repo.Get(ctx, patch.StoreID, id)
	if err != nil {
		return Product{}, err
	}
	in, err := normalize(merge(p, patch))
	if err != nil {
		return Product{}, err
	}
	if patch.CategoryID != nil || patch.BrandID != nil {
		if err := s.checkLinks(ctx, in); err != nil {
			return Product{}, err
		}
	}
	apply(&p, in)
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Product{}, err
	}
	s.record(ctx, "PRODUCT_UPDATE", p)
	return s.repo.Get(ctx, p.StoreID, p.ID)
}

// Delete removes a product that no purchase order or sale references.
func (s *Service) Delete(ctx context.Context, storeID, id string) error {
	p, err := s.repo.Get(ctx, storeID, id)
	if err != nil {
		return err
	}
	refs, err := s.repo.References(ctx, storeID, id)
	if err != nil {
		return err
	}
	if refs.PurchaseOrders > 0 || refs.Sales > 0 {
		return fmt.Errorf("%w: product %s appears in %d purchase orders and %d sales; deactivate it instead",
			shared.ErrReferenced, p.Name, refs.PurchaseOrders, refs.Sales)
	}
	if err := s.repo.Delete(ctx, storeID, id); err != nil {
		return err
	}
	s.record(ctx, "PRODUCT_DELETE", p)
	return nil
}

// merge overlays patch on the stored product.
func merge(p Product, patch Patch) Input {
	in := Input{
		StoreID:       p.StoreID,
		SKU:           p.SKU,
		Barcode:       p.Barcode,
		Name:          p.Name,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		BrandID:       p.BrandID,
		BuyingPrice:   p.BuyingPrice,
		SellingPrice:  p.SellingPrice,
		MinStockLevel: p.MinStockLevel,
		Unit:          p.Unit,
		Images:        p.Images,
		IsActive:      patch.IsActive,
	}
	if patch.SKU != nil {
		in.SKU = *patch.SKU
	}
	if patch.Barcode != nil {
		in.Barcode = patch.Barcode
	}
	if patch.Name != nil {
		in.Name = *patch.Name
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		in.CategoryID = *patch.CategoryID
	}
	if patch.BrandID != nil {
		in.BrandID = patch.BrandID
	}
	if patch.BuyingPrice.Valid {
		in.BuyingPrice = patch.BuyingPrice.Decimal
	}
	if patch.SellingPrice.Valid {
		in.SellingPrice = patch.SellingPrice.Decimal
	}
	if patch.MinStockLevel != nil {
		in.MinStockLevel = *patch.MinStockLevel
	}
	if patch.Unit != nil {
		in.Unit = *patch.Unit
	}
	if patch.Images != nil {
		in.Images = patch.Images
	}
	return in
}

func apply(p *Product, in Input) {
	p.SKU = in.SKU
	p.Barcode = in.Barcode
	p.Name = in.Name
	p.Slug = shared.Slugify(in.Name)
	p.Description = in.Description
	p.CategoryID = in.CategoryID
	p.BrandID = in.BrandID
	p.BuyingPrice = in.BuyingPrice
	p.SellingPrice = in.SellingPrice
	p.MinStockLevel = in.MinStockLevel
	p.Unit = in.Unit
	p.Images = in.Images
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func (s *Service) record(ctx context.Context, action string, p Product) {
	if s.audit == nil {
		return
	}
	entry := shared.ActivityLog{StoreID: p.StoreID, Action: action, Entity: "product", EntityID: p.ID, Meta: map[string]any{"sku": p.SKU}}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("record product activity", slog.String("action", action), slog.Any("error", err))
	}
}
