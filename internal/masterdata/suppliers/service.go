package suppliers

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

type Service struct {
	repo   Repository
	audit  ActivityPort
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, audit ActivityPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) (shared.Page[Supplier], error) {
	if filters.StoreID == "" {
		return shared.Page[Supplier]{}, fmt.Errorf("%w: storeId is required", shared.ErrValidation)
	}
	filters.Search = strings.TrimSpace(filters.Search)
	filters.Page, filters.PageSize = shared.NormalizePage(filters.Page, filters.PageSize, shared.DefaultPageSize)
	items, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return shared.Page[Supplier]{}, err
	}
	return shared.NewPage(items, filters.Page, filters.PageSize, total), nil
}

func (s *Service) Get(ctx context.Context, storeID, id string) (Supplier, error) {
	if id == "" {
		return Supplier{}, fmt.Errorf("%w: supplier id is required", shared.ErrValidation)
	}
	return s.repo.Get(ctx, storeID, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Supplier, error) {
	in, err := normalize(in)
	if err != nil {
		return Supplier{}, err
	}
	now := s.now()
	sup := Supplier{ID: uuid.NewString(), StoreID: in.StoreID, IsActive: true, CreatedAt: now, UpdatedAt: now}
	apply(&sup, in)
	if err := s.repo.Create(ctx, sup); err != nil {
		return Supplier{}, err
	}
	s.record(ctx, "SUPPLIER_CREATE", sup)
	return sup, nil
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (Supplier, error) {
	sup, err := s.Get(ctx, p.StoreID, id)
	if err != nil {
		return Supplier{}, err
	}
	in, err := normalize(merge(sup, p))
	if err != nil {
		return Supplier{}, err
	}
	apply(&sup, in)
	sup.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, sup); err != nil {
		return Supplier{}, err
	}
	s.record(ctx, "SUPPLIER_UPDATE", sup)
	return sup, nil
}

// Delete removes a supplier with no purchase orders.
func (s *Service) Delete(ctx context.Context, storeID, id string) error {
	sup, err := s.Get(ctx, storeID, id)
	if err != nil {
		return err
	}
	if sup.PurchaseOrders > 0 {
		return fmt.Errorf("%w: supplier %s has %d purchase orders", shared.ErrReferenced, sup.Name, sup.PurchaseOrders)
	}
	if err := s.repo.Delete(ctx, storeID, id); err != nil {
		return err
	}
	s.record(ctx, "SUPPLIER_DELETE", sup)
	return nil
}

func merge(sup Supplier, p Patch) Input {
	in := Input{
		StoreID:       sup.StoreID,
		Name:          sup.Name,
		ContactPerson: sup.ContactPerson,
		Phone:         sup.Phone,
		Email:         sup.Email,
		Address:       sup.Address,
		IsActive:      p.IsActive,
	}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.ContactPerson != nil {
		in.ContactPerson = *p.ContactPerson
	}
	if p.Phone != nil {
		in.Phone = *p.Phone
	}
	if p.Email != nil {
		in.Email = *p.Email
	}
	if p.Address != nil {
		in.Address = *p.Address
	}
	return in
}

func apply(sup *Supplier, in Input) {
	sup.Name = in.Name
	sup.ContactPerson = in.ContactPerson
	sup.Phone = in.Phone
	sup.Email = in.Email
	sup.Address = in.Address
	if in.IsActive != nil {
		sup.IsActive = *in.IsActive
	}
}

func (s *Service) record(ctx context.Context, action string, sup Supplier) {
	if s.audit == nil {
		return
	}
	entry := shared.ActivityLog{StoreID: sup.StoreID, Action: action, Entity: "supplier", EntityID: sup.ID, Meta: map[string]any{"name": sup.Name}}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("record supplier activity", slog.String("action", action), slog.Any("error", err))
	}
}
