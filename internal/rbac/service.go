// Package rbac answers whether the acting user may reach a store.
package rbac

import (
	"context"
	"fmt"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// StoreLinks lists the stores a user is linked to.
type StoreLinks interface {
	StoreIDsForUser(ctx context.Context, userID string) ([]string, error)
}

// Service evaluates permissions and store access for the actor in context.
type Service struct {
	links StoreLinks
}

// NewService constructs a Service.
func NewService(links StoreLinks) *Service {
	return &Service{links: links}
}

// Require fails with ErrForbidden unless the actor holds permission.
func (s *Service) Require(ctx context.Context, permission string) error {
	actor, ok := shared.ActorFromContext(ctx)
	if !ok {
		return shared.ErrUnauthorized
	}
	if !actor.Can(permission) {
		return fmt.Errorf("%w: missing %s", shared.ErrForbidden, permission)
	}
	return nil
}

// EnsureStore fails unless the actor may operate on storeID. Super-admin
// roles reach every store; other users reach linked stores only. Links are
// read live so store assignment changes apply without a new login.
func (s *Service) EnsureStore(ctx context.Context, storeID string) error {
	if storeID == "" {
		return fmt.Errorf("%w: storeId is required", shared.ErrValidation)
	}
	actor, ok := shared.ActorFromContext(ctx)
	if !ok {
		return shared.ErrUnauthorized
	}
	if actor.SuperAdmin {
		return nil
	}
	ids, err := s.links.StoreIDsForUser(ctx, actor.UserID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == storeID {
			return nil
		}
	}
	return fmt.Errorf("%w: no access to store %s", shared.ErrForbidden, storeID)
}

// AccessibleStores returns the store ids visible to the actor. all is true
// for super-admins, in which case ids is nil.
func (s *Service) AccessibleStores(ctx context.Context) (all bool, ids []string, err error) {
	actor, ok := shared.ActorFromContext(ctx)
	if !ok {
		return false, nil, shared.ErrUnauthorized
	}
	if actor.SuperAdmin {
		return true, nil, nil
	}
	ids, err = s.links.StoreIDsForUser(ctx, actor.UserID)
	return false, ids, err
}
