package users

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, filters ListFilters) ([]User, int, error)
	Get(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, u User, passwordHash string) error
	Update(ctx context.Context, u User, passwordHash string) error
	Delete(ctx context.Context, id string) error
	RoleExists(ctx context.Context, roleID string) (bool, error)
	SetStores(ctx context.Context, userID string, storeIDs []string) error
}

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// Service handles user business logic.
type Service struct {
	repo       RepositoryPort
	audit      ActivityPort
	logger     *slog.Logger
	bcryptCost int
	now        func() time.Time
}

// NewService builds Service instance. A zero bcryptCost uses bcrypt.DefaultCost.
func NewService(repo RepositoryPort, audit ActivityPort, logger *slog.Logger, bcryptCost int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{repo: repo, audit: audit, logger: logger, bcryptCost: bcryptCost, now: func() time.Time { return time.Now().UTC() }}
}

// List pages users.
func (s *Service) List(ctx context.Context, filters ListFilters) (shared.Page[User], error) {
	filters.Page, filters.PageSize = shared.NormalizePage(filters.Page, filters.PageSize, shared.DefaultPageSize)
	users, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return shared.Page[User]{}, err
	}
	return shared.NewPage(users, filters.Page, filters.PageSize, total), nil
}

// Get loads one user.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.Get(ctx, id)
}

// Create hashes the password and inserts the user with its store links.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	if len(in.Password) < 8 {
		return User{}, fmt.Errorf("%w: password must have at least 8 characters", shared.ErrValidation)
	}
	if err := s.checkRole(ctx, in.RoleID); err != nil {
		return User{}, err
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return User{}, err
	}
	now := s.now()
	user := User{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:  strings.TrimSpace(in.FullName),
		RoleID:    in.RoleID,
		IsActive:  in.IsActive == nil || *in.IsActive,
		StoreIDs:  dedupe(in.StoreIDs),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if user.Username == "" {
		return User{}, fmt.Errorf("%w: username is required", shared.ErrValidation)
	}
	if err := s.repo.Create(ctx, user, hash); err != nil {
		return User{}, err
	}
	s.record(ctx, "USER_CREATE", user.ID, map[string]any{"username": user.Username})
	return s.repo.Get(ctx, user.ID)
}

// Update changes profile fields and, when given, the password.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if err := s.checkRole(ctx, in.RoleID); err != nil {
		return User{}, err
	}
	if in.IsActive != nil && !*in.IsActive && id == shared.ActorID(ctx) {
		return User{}, fmt.Errorf("%w: you cannot deactivate your own account", shared.ErrValidation)
	}
	hash := ""
	if in.Password != "" {
		if len(in.Password) < 8 {
			return User{}, fmt.Errorf("%w: password must have at least 8 characters", shared.ErrValidation)
		}
		if hash, err = s.hash(in.Password); err != nil {
			return User{}, err
		}
	}
	user.Username = strings.TrimSpace(in.Username)
	user.Email = strings.ToLower(strings.TrimSpace(in.Email))
	user.FullName = strings.TrimSpace(in.FullName)
	user.RoleID = in.RoleID
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	user.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, user, hash); err != nil {
		return User{}, err
	}
	s.record(ctx, "USER_UPDATE", id, map[string]any{"passwordChanged": hash != ""})
	return s.repo.Get(ctx, id)
}

// Delete removes a user other than the actor.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == shared.ActorID(ctx) {
		return fmt.Errorf("%w: you cannot delete your own account", shared.ErrValidation)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "USER_DELETE", id, nil)
	return nil
}

// SetStores replaces the stores a user may open.
func (s *Service) SetStores(ctx context.Context, id string, storeIDs []string) (User, error) {
	ids := dedupe(storeIDs)
	if err := s.repo.SetStores(ctx, id, ids); err != nil {
		return User{}, err
	}
	s.record(ctx, "USER_SET_STORES", id, map[string]any{"storeIds": ids})
	return s.repo.Get(ctx, id)
}

func (s *Service) checkRole(ctx context.Context, roleID string) error {
	if roleID == "" {
		return fmt.Errorf("%w: roleId is required", shared.ErrValidation)
	}
	ok, err := s.repo.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: role %s does not exist", shared.ErrValidation, roleID)
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) record(ctx context.Context, action, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.ActivityLog{Action: action, Entity: "user", EntityID: id, Meta: meta}); err != nil {
		s.logger.Warn("record user activity", slog.String("action", action), slog.Any("error", err))
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
