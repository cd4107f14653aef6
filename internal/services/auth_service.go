package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/cache"
	"github.com/hazelton-clinic/assessment-service/internal/events"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
	"gorm.io/gorm"
)

// AuthDependencies are the collaborators the auth service needs beyond the
// repository.
type AuthDependencies struct {
	Tokens        *auth.TokenManager
	Blacklist     cache.TokenBlacklist
	LoginLimiter  cache.RateLimiter
	Publisher     events.EventPublisher
	ResetTokenTTL time.Duration
}

type authService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator

	tokens    *auth.TokenManager
	blacklist cache.TokenBlacklist
	limiter   cache.RateLimiter
	publisher events.EventPublisher
	resetTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, deps AuthDependencies) AuthService {
	resetTTL := deps.ResetTokenTTL
	if resetTTL <= 0 {
		resetTTL = 4 * time.Hour
	}
	return &authService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		tokens:    deps.Tokens,
		blacklist: deps.Blacklist,
		limiter:   deps.LoginLimiter,
		publisher: deps.Publisher,
		resetTTL:  resetTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Login(ctx context.Context, req *LoginRequest, clientKey string) (*TokenResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if s.limiter != nil {
		result, err := s.limiter.Allow(ctx, clientKey)
		if err != nil {
			s.logger.Warn("Login rate limiter unavailable", "error", err)
		} else if !result.Allowed {
			s.logger.Warn("Login rate limited", "client", clientKey)
			return nil, &RateLimitError{RetryAfter: result.RetryAfter}
		}
	}

	user, err := s.repo.User().GetByEmail(ctx, s.db, req.Username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Info("Failed login attempt", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User logged in", "user_id", user.ID)
	return resp, nil
}

// Authenticate rejects malformed, expired and revoked tokens, and tokens of
// users that no longer exist.
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	claims, err := s.tokens.Parse(token, auth.AccessToken)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := s.checkNotRevoked(ctx, claims); err != nil {
		return nil, nil, err
	}

	user, err := s.repo.User().GetByID(ctx, s.db, claims.Subject)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, claims, nil
}

// Logout revokes the presented token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	ttl := s.tokens.Remaining(claims)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.logger.Info("User logged out", "user_id", claims.Subject)
	return nil
}

// Refresh swaps a refresh token of the calling user for a new pair. The used
// refresh token is revoked.
func (s *authService) Refresh(ctx context.Context, userID string, req *RefreshRequest) (*TokenResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.Parse(req.RefreshToken, auth.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject != userID {
		return nil, ErrInvalidToken
	}
	if err := s.checkNotRevoked(ctx, claims); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, s.db, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if ttl := s.tokens.Remaining(claims); ttl > 0 {
		if err := s.blacklist.Revoke(ctx, claims.ID, ttl); err != nil {
			return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
		}
	}
	return s.issue(user)
}

// RequestPasswordReset never reveals whether the email is registered.
func (s *authService) RequestPasswordReset(ctx context.Context, req *PasswordResetRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.repo.User().GetByEmail(ctx, s.db, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Info("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.resetTTL)
	if err := s.repo.User().SetResetToken(ctx, s.db, user.ID, &token, &expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	event, err := events.NewEvent(events.PasswordResetRequested, events.PasswordResetRequestedData{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	})
	if err == nil && s.publisher != nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Error("Failed to publish password reset event", "user_id", user.ID, "error", err)
	}

	s.logger.Info("Password reset requested", "user_id", user.ID)
	return nil
}

func (s *authService) ConfirmPasswordReset(ctx context.Context, req *PasswordResetConfirmRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.repo.User().GetByResetToken(ctx, s.db, req.Token)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user.ResetPasswordExpires == nil || !s.now().Before(*user.ResetPasswordExpires) {
		return ErrInvalidResetToken
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.User().Update(ctx, nil, user); err != nil {
			return err
		}
		return txRepo.User().SetResetToken(ctx, nil, user.ID, nil, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.Info("Password reset completed", "user_id", user.ID)
	return nil
}

func (s *authService) issue(user *models.User) (*TokenResponse, error) {
	pair, err := s.tokens.IssuePair(auth.Subject{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}
	return &TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		Email:        user.Email,
	}, nil
}

func (s *authService) checkNotRevoked(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return fmt.Errorf("%w: token revoked", ErrInvalidToken)
	}
	return nil
}
