package roles

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context, search string) ([]Role, error)
	Get(ctx context.Context, id string) (Role, error)
	Create(ctx context.Context, role Role) error
	Update(ctx context.Context, role Role) error
	Delete(ctx context.Context, id string) error
}

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// Service handles role business logic.
type Service struct {
	repo   RepositoryPort
	audit  ActivityPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit ActivityPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns all roles.
func (s *Service) List(ctx context.Context, search string) ([]Role, error) {
	return s.repo.List(ctx, strings.TrimSpace(search))
}

// Get loads one role.
func (s *Service) Get(ctx context.Context, id string) (Role, error) {
	return s.repo.Get(ctx, id)
}

// Create inserts a role after validating its permissions.
func (s *Service) Create(ctx context.Context, in Input) (Role, error) {
	perms, err := normalizePermissions(in.Permissions)
	if err != nil {
		return Role{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Role{}, fmt.Errorf("%w: role name is required", shared.ErrValidation)
	}
	now := s.now()
	role := Role{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Permissions: perms,
		SuperAdmin:  in.SuperAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return Role{}, err
	}
	s.record(ctx, "ROLE_CREATE", role)
	return role, nil
}

// Update replaces a role's name, description and permissions.
func (s *Service) Update(ctx context.Context, id string, in Input) (Role, error) {
	perms, err := normalizePermissions(in.Permissions)
	if err != nil {
		return Role{}, err
	}
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		role.Name = name
	}
	role.Description = strings.TrimSpace(in.Description)
	role.Permissions = perms
	role.SuperAdmin = in.SuperAdmin
	role.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, role); err != nil {
		return Role{}, err
	}
	s.record(ctx, "ROLE_UPDATE", role)
	return role, nil
}

// Delete removes a role no user references.
func (s *Service) Delete(ctx context.Context, id string) error {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if role.UserCount > 0 {
		return fmt.Errorf("%w: role %s is assigned to %d users", shared.ErrReferenced, role.Name, role.UserCount)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "ROLE_DELETE", role)
	return nil
}

// Permissions lists every permission a role may hold.
func (s *Service) Permissions() []string {
	return shared.AllPermissions()
}

func normalizePermissions(perms []string) ([]string, error) {
	seen := make(map[string]struct{}, len(perms))
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if !shared.IsKnownPermission(p) {
			return nil, fmt.Errorf("%w: unknown permission %q", shared.ErrValidation, p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Service) record(ctx context.Context, action string, role Role) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.ActivityLog{Action: action, Entity: "role", EntityID: role.ID, Meta: map[string]any{"name": role.Name}}); err != nil {
		s.logger.Warn("record role activity", slog.String("action", action), slog.Any("error", err))
	}
}
