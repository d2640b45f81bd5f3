package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MikeMC777/ordenes-saga/internal/apperr"
	"github.com/MikeMC777/ordenes-saga/internal/auth"
	"github.com/MikeMC777/ordenes-saga/internal/config"
	"github.com/MikeMC777/ordenes-saga/internal/identity"
	"github.com/MikeMC777/ordenes-saga/internal/logging"
)

// Service issues machine tokens for seeded service accounts. It is the
// identity.LoginServer behind user-service.
type Service struct {
	repo   Repository
	jwt    *auth.JWTService
	logger *zap.Logger
}

func NewService(repo Repository, jwt *auth.JWTService, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, jwt: jwt, logger: logger}
}

// Login checks the password against the account's bcrypt hash and issues a
// JWT carrying the account id and roles. Unknown accounts and wrong
// passwords both fail with UNAUTHENTICATED.
func (s *Service) Login(ctx context.Context, username, password string) (identity.Token, error) {
	if username == "" || password == "" {
		return identity.Token{}, apperr.InvalidArgument("username and password are required")
	}
	a, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logging.Warn(ctx, s.logger, "login rejected", zap.String("username", username))
			return identity.Token{}, apperr.New(apperr.KindUnauthenticated, "invalid credentials")
		}
		return identity.Token{}, apperr.Wrap(apperr.KindInternal, err, "lookup account")
	}
	if !CheckPassword(a.PasswordHash, password) {
		logging.Warn(ctx, s.logger, "login rejected", zap.String("username", username))
		return identity.Token{}, apperr.New(apperr.KindUnauthenticated, "invalid credentials")
	}

	tok, exp, err := s.jwt.Issue(a.ID, a.Username, a.Roles)
	if err != nil {
		return identity.Token{}, apperr.Wrap(apperr.KindInternal, err, "sign token")
	}
	logging.Info(ctx, s.logger, "token issued",
		zap.String("username", a.Username), zap.Time("expires_at", exp))
	return identity.Token{Value: tok, ExpiresAt: exp}, nil
}

// Seed creates or refreshes the configured service accounts.
func (s *Service) Seed(ctx context.Context, accounts []config.SeedAccount) error {
	for _, sa := range accounts {
		hash, err := HashPassword(sa.Password)
		if err != nil {
			return err
		}
		a := &Account{
			ID:           uuid.NewString(),
			Username:     sa.Username,
			PasswordHash: hash,
			Roles:        sa.Roles,
		}
		if err := s.repo.Upsert(ctx, a); err != nil {
			return err
		}
		s.logger.Info("service account seeded",
			zap.String("username", a.Username), zap.Strings("roles", a.Roles))
	}
	return nil
}
