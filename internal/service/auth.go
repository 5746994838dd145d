package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"wordflash/internal/repository"

	"go.uber.org/zap"
)

// AuthService gates the bot behind a shared password and tells the
// presenter who receives cards
type AuthService struct {
	users    repository.UserRepository
	password string
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepository, password string, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		password: password,
		logger:   logger,
	}
}

// Access registers the user on first contact and reports whether it may
// use the bot
func (s *AuthService) Access(ctx context.Context, userID int64) (bool, error) {
	user, err := s.users.Upsert(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return user.Authorized, nil
}

// Login authorizes the user when password matches. A wrong password is not
// an error.
func (s *AuthService) Login(ctx context.Context, userID int64, password string) (bool, error) {
	if s.password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		s.logger.Info("Rejected password", zap.Int64("user_id", userID))
		return false, nil
	}

	if err := s.users.Authorize(ctx, userID); err != nil {
		return false, fmt.Errorf("failed to authorize user %d: %w", userID, err)
	}

	s.logger.Info("User authorized", zap.Int64("user_id", userID))
	return true, nil
}

// Recipients returns the users cards are sent to
func (s *AuthService) Recipients(ctx context.Context) ([]int64, error) {
	ids, err := s.users.ListAuthorized(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorized users: %w", err)
	}
	return ids, nil
}
