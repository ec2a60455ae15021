package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// SessionStore issues and revokes bridge session tokens.
type SessionStore interface {
	Issue(ctx context.Context, sess shared.Session) (string, error)
	Revoke(ctx context.Context, token string) error
	TTL() time.Duration
}

// ActivityPort records activity log entries.
type ActivityPort interface {
	Record(ctx context.Context, log shared.ActivityLog) error
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	sessions SessionStore
	audit    ActivityPort
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, sessions SessionStore, audit ActivityPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, sessions: sessions, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Authenticate validates username (or email) and password. Unknown users,
// inactive users and wrong passwords all yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*Account, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, shared.ErrInvalidCredentials
	}
	account, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !account.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return account, nil
}

// Login authenticates and opens a session carrying the actor and its stores.
func (s *Service) Login(ctx context.Context, login, password string) (LoginResult, error) {
	account, err := s.Authenticate(ctx, login, password)
	if err != nil {
		return LoginResult{}, err
	}
	stores, err := s.repo.StoresForUser(ctx, account.ID, account.SuperAdmin)
	if err != nil {
		return LoginResult{}, err
	}
	storeIDs := make([]string, 0, len(stores))
	for _, st := range stores {
		storeIDs = append(storeIDs, st.ID)
	}

	now := s.now()
	actor := shared.Actor{
		UserID:      account.ID,
		Username:    account.Username,
		RoleID:      account.RoleID,
		Permissions: account.Permissions,
		SuperAdmin:  account.SuperAdmin,
	}
	token, err := s.sessions.Issue(ctx, shared.Session{Actor: actor, StoreIDs: storeIDs, CreatedAt: now})
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.repo.TouchLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("stamp last login", slog.String("user_id", account.ID), slog.Any("error", err))
	}
	if s.audit != nil {
		entry := shared.ActivityLog{UserID: account.ID, Action: "LOGIN", Entity: "user", EntityID: account.ID}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("record login activity", slog.Any("error", err))
		}
	}

	profile := account.profile()
	profile.LastLoginAt = &now
	return LoginResult{Token: token, ExpiresAt: now.Add(s.sessions.TTL()), User: profile, Stores: stores}, nil
}

// Logout revokes the session in context.
func (s *Service) Logout(ctx context.Context) error {
	sess, ok := shared.SessionFromContext(ctx)
	if !ok {
		return shared.ErrUnauthorized
	}
	return s.sessions.Revoke(ctx, sess.Token)
}

// Me reloads the acting user and the stores it may open.
func (s *Service) Me(ctx context.Context) (LoginResult, error) {
	sess, ok := shared.SessionFromContext(ctx)
	if !ok {
		return LoginResult{}, shared.ErrUnauthorized
	}
	account, err := s.repo.FindByID(ctx, sess.Actor.UserID)
	if err != nil {
		return LoginResult{}, err
	}
	if !account.IsActive {
		return LoginResult{}, shared.ErrUnauthorized
	}
	stores, err := s.repo.StoresForUser(ctx, account.ID, account.SuperAdmin)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{ExpiresAt: sess.CreatedAt.Add(s.sessions.TTL()), User: account.profile(), Stores: stores}, nil
}
