package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
	"gorm.io/gorm"
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// Create registers a user and, when requested, its account in the same
// transaction.
func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.repo.User().ExistsByEmail(ctx, s.db, email, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: hash}
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.User().Create(ctx, nil, user); err != nil {
			return err
		}
		if req.Account == nil {
			return nil
		}
		account := &models.Account{
			ID:        uuid.NewString(),
			FirstName: strings.TrimSpace(req.Account.FirstName),
			LastName:  strings.TrimSpace(req.Account.LastName),
			Role:      req.Account.Role,
			UserID:    user.ID,
		}
		if err := txRepo.Account().Create(ctx, nil, account); err != nil {
			return err
		}
		user.Account = account
		return nil
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "with_account", user.Account != nil)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrUserNotFound, "User", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error) {
	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)

	users, total, err := s.repo.User().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return &UserListResponse{Users: users, Total: total, Limit: filters.Limit, Offset: filters.Offset}, nil
}

// Update applies the patch. A user without an account gets one only when the
// patch carries every account field.
func (s *userService) Update(ctx context.Context, id string, req *UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// The cached copy carries no hash; an empty hash is left untouched on save.
	user.PasswordHash = ""

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			taken, err := s.repo.User().ExistsByEmail(ctx, s.db, email, &id)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if taken {
				return nil, ErrEmailAlreadyRegistered
			}
			user.Email = email
		}
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	var account *models.Account
	if req.Account != nil {
		account, err = patchedAccount(user, req.Account)
		if err != nil {
			return nil, err
		}
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.User().Update(ctx, nil, user); err != nil {
			return err
		}
		if account == nil {
			return nil
		}
		if user.Account == nil {
			return txRepo.Account().Create(ctx, nil, account)
		}
		return txRepo.Account().Update(ctx, nil, account)
	})
	if err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrUserNotFound, "User", id)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("User updated", "user_id", id)
	return s.GetByID(ctx, id)
}

func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.repo.User().SoftDelete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return newNotFound(ErrUserNotFound, "User", id)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.logger.Info("User deleted", "user_id", id)
	return nil
}

func patchedAccount(user *models.User, patch *validator.AccountPatch) (*models.Account, error) {
	if user.Account == nil {
		if patch.FirstName == nil || patch.LastName == nil || patch.Role == nil {
			return nil, validator.NewValidationError("account", "first_name, last_name and role are required to create an account", nil)
		}
		return &models.Account{
			ID:        uuid.NewString(),
			FirstName: strings.TrimSpace(*patch.FirstName),
			LastName:  strings.TrimSpace(*patch.LastName),
			Role:      *patch.Role,
			UserID:    user.ID,
		}, nil
	}

	account := *user.Account
	applyAccountPatch(&account, patch)
	return &account, nil
}

func applyAccountPatch(account *models.Account, patch *validator.AccountPatch) {
	if patch.FirstName != nil {
		account.FirstName = strings.TrimSpace(*patch.FirstName)
	}
	if patch.LastName != nil {
		account.LastName = strings.TrimSpace(*patch.LastName)
	}
	if patch.Role != nil {
		account.Role = *patch.Role
	}
}

// ===== ACCOUNTS =====

type accountService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAccountService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) AccountService {
	return &accountService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *accountService) Create(ctx context.Context, req *CreateAccountRequest) (*models.Account, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.User().GetByID(ctx, s.db, req.UserID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrUserNotFound, "User", req.UserID)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	_, err := s.repo.Account().GetByUserID(ctx, s.db, req.UserID)
	if err == nil {
		return nil, ErrAccountAlreadyExists
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check account: %w", err)
	}

	account := &models.Account{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
		UserID:    req.UserID,
	}
	if err := s.repo.Account().Create(ctx, s.db, account); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrAccountAlreadyExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("Account created", "account_id", account.ID, "user_id", account.UserID, "role", account.Role)
	return account, nil
}

func (s *accountService) GetByID(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.repo.Account().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrAccountNotFound, "Account", id)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *accountService) List(ctx context.Context, params repositories.ListParams) (*AccountListResponse, error) {
	params.Limit, params.Offset = normalizePage(params.Limit, params.Offset)

	accounts, total, err := s.repo.Account().List(ctx, s.db, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return &AccountListResponse{Accounts: accounts, Total: total, Limit: params.Limit, Offset: params.Offset}, nil
}

func (s *accountService) Update(ctx context.Context, id string, req *UpdateAccountRequest) (*models.Account, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	account, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyAccountPatch(account, req)

	if err := s.repo.Account().Update(ctx, s.db, account); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrAccountNotFound, "Account", id)
		}
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return account, nil
}

func (s *accountService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Account().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return newNotFound(ErrAccountNotFound, "Account", id)
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	s.logger.Info("Account deleted", "account_id", id)
	return nil
}
