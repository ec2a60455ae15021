// Package masterdata groups the per-store catalog: categories, brands,
// products and suppliers.
package masterdata

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/bridge"
	"github.com/tillpoint/tillpoint/internal/masterdata/brands"
	"github.com/tillpoint/tillpoint/internal/masterdata/categories"
	"github.com/tillpoint/tillpoint/internal/masterdata/products"
	"github.com/tillpoint/tillpoint/internal/masterdata/suppliers"
	"github.com/tillpoint/tillpoint/internal/shared"
)

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// StoreGuard checks store access for the actor in context.
type StoreGuard interface {
	EnsureStore(ctx context.Context, storeID string) error
}

// Catalog wires the catalog services over one pool.
type Catalog struct {
	Categories *categories.Service
	Brands     *brands.Service
	Products   *products.Service
	Suppliers  *suppliers.Service

	guard StoreGuard
}

// NewCatalog builds the PostgreSQL backed catalog services.
func NewCatalog(pool *pgxpool.Pool, audit ActivityPort, guard StoreGuard, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		Categories: categories.NewService(categories.NewRepository(pool), audit, logger.With(slog.String("module", "categories"))),
		Brands:     brands.NewService(brands.NewRepository(pool), audit, logger.With(slog.String("module", "brands"))),
		Products:   products.NewService(products.NewRepository(pool), audit, logger.With(slog.String("module", "products"))),
		Suppliers:  suppliers.NewService(suppliers.NewRepository(pool), audit, logger.With(slog.String("module", "suppliers"))),
		guard:      guard,
	}
}

// Register mounts every catalog operation on the bridge.
func (c *Catalog) Register(r *bridge.Registry) {
	categories.NewHandler(c.Categories, c.guard).Register(r)
	brands.NewHandler(c.Brands, c.guard).Register(r)
	products.NewHandler(c.Products, c.guard).Register(r)
	suppliers.NewHandler(c.Suppliers, c.guard).Register(r)
}
