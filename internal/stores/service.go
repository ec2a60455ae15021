package stores

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// AccessPort scopes store visibility to the actor in context.
type AccessPort interface {
	AccessibleStores(ctx context.Context) (all bool, ids []string, err error)
	EnsureStore(ctx context.Context, storeID string) error
}

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// Service manages stores.
type Service struct {
	repo   Repository
	access AccessPort
	audit  ActivityPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs Service.
func NewService(repo Repository, access AccessPort, audit ActivityPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, access: access, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List pages the stores visible to the actor.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) (shared.Page[Store], error) {
	all, ids, err := s.access.AccessibleStores(ctx)
	if err != nil {
		return shared.Page[Store]{}, err
	}
	var scope []string
	if !all {
		if len(ids) == 0 {
			return shared.NewPage[Store](nil, filters.Page, filters.PageSize, 0), nil
		}
		scope = ids
	}
	stores, total, err := s.repo.List(ctx, filters, scope)
	if err != nil {
		return shared.Page[Store]{}, err
	}
	return shared.NewPage(stores, filters.Page, filters.PageSize, total), nil
}

// Get loads a store the actor may access.
func (s *Service) Get(ctx context.Context, id string) (Store, error) {
	if err := s.access.EnsureStore(ctx, id); err != nil {
		return Store{}, err
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a store.
func (s *Service) Create(ctx context.Context, in Input) (Store, error) {
	in, err := normalize(in)
	if err != nil {
		return Store{}, err
	}
	now := s.now()
	store := Store{ID: uuid.NewString(), IsActive: true, CreatedAt: now, UpdatedAt: now}
	apply(&store, in)
	if err := s.repo.Create(ctx, store); err != nil {
		return Store{}, err
	}
	s.record(ctx, "STORE_CREATE", store)
	return store, nil
}

// Update replaces the editable fields of a store.
func (s *Service) Update(ctx context.Context, id string, in Input) (Store, error) {
	in, err := normalize(in)
	if err != nil {
		return Store{}, err
	}
	store, err := s.repo.Get(ctx, id)
	if err != nil {
		return Store{}, err
	}
	apply(&store, in)
	store.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, store); err != nil {
		return Store{}, err
	}
	s.record(ctx, "STORE_UPDATE", store)
	return store, nil
}

// Delete removes a store that owns no products and no sales.
func (s *Service) Delete(ctx context.Context, id string) error {
	store, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	refs, err := s.repo.References(ctx, id)
	if err != nil {
		return err
	}
	if refs.Products > 0 || refs.Sales > 0 {
		return fmt.Errorf("%w: store %s has %d products and %d sales", shared.ErrReferenced, store.Name, refs.Products, refs.Sales)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "STORE_DELETE", store)
	return nil
}

func apply(store *Store, in Input) {
	store.Code = in.Code
	store.Name = in.Name
	store.Address = in.Address
	store.Phone = in.Phone
	store.Email = in.Email
	store.Currency = in.Currency
	store.TaxRate = in.TaxRate
	if in.IsActive != nil {
		store.IsActive = *in.IsActive
	}
}

func (s *Service) record(ctx context.Context, action string, store Store) {
	if s.audit == nil {
		return
	}
	entry := shared.ActivityLog{StoreID: store.ID, Action: action, Entity: "store", EntityID: store.ID, Meta: map[string]any{"code": store.Code}}
	if action == "STORE_DELETE" {
		entry.StoreID = ""
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("record store activity", slog.String("action", action), slog.Any("error", err))
	}
}
