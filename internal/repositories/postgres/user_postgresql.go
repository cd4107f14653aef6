package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hazelton-clinic/assessment-service/internal/cache"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts the user and, when set, its account.
func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	user.Email = normalizeEmail(user.Email)
	if err := u.helpers.conn(ctx, tx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID is on the authentication path of every request, so it is cached.
// Any write to the user or its account invalidates the entry.
func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	err := u.cacheManager.User.CacheOrExecute(ctx, cache.UserKey(id), &user, cache.UserCacheConfig.TTL, func() (any, error) {
		var dbUser models.User
		if err := u.helpers.conn(ctx, tx).Preload("Account").Where("id = ?", id).First(&dbUser).Error; err != nil {
			return nil, fmt.Errorf("failed to get user %s: %w", id, err)
		}
		return &dbUser, nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := u.helpers.conn(ctx, tx).Preload("Account").Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByResetToken(ctx context.Context, tx *gorm.DB, token string) (*models.User, error) {
	var user models.User
	err := u.helpers.conn(ctx, tx).Where("reset_password_token = ?", token).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}
	return &user, nil
}

func (u *UserPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := u.helpers.conn(ctx, tx).Model(&models.User{})
	if filters.Query != "" {
		query = query.Where("email ILIKE ?", likePattern(filters.Query))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []*models.User
	err := u.helpers.ApplyPagination(query.Preload("Account").Order("created_at ASC"), filters.Limit, filters.Offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// Update writes email and, when non-empty, the password hash. Users read
// through the cache carry no hash, so an empty one means "unchanged".
func (u *UserPostgreSQL) Update(ctx context.Context, tx *gorm.DB, user *models.User) error {
	fields := map[string]any{
		"email":      normalizeEmail(user.Email),
		"updated_at": time.Now().UTC(),
	}
	if user.PasswordHash != "" {
		fields["password_hash"] = user.PasswordHash
	}
	result := u.helpers.conn(ctx, tx).Model(&models.User{}).Where("id = ?", user.ID).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update user %s: %w", user.ID, gorm.ErrRecordNotFound)
	}
	cache.InvalidateUserCache(ctx, u.cacheManager, user.ID)
	return nil
}

// SetResetToken stores or, with nil arguments, clears the password reset token.
func (u *UserPostgreSQL) SetResetToken(ctx context.Context, tx *gorm.DB, id string, token *string, expires *time.Time) error {
	err := u.helpers.conn(ctx, tx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]any{
		"reset_password_token":   token,
		"reset_password_expires": expires,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	return nil
}

func (u *UserPostgreSQL) SoftDelete(ctx context.Context, tx *gorm.DB, id string) error {
	result := u.helpers.conn(ctx, tx).Where("id = ?", id).Delete(&models.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete user %s: %w", id, gorm.ErrRecordNotFound)
	}
	cache.InvalidateUserCache(ctx, u.cacheManager, id)
	return nil
}

// ExistsByEmail also sees soft-deleted users since the unique index does.
func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *string) (bool, error) {
	query := u.helpers.conn(ctx, tx).Unscoped().Model(&models.User{}).Where("email = ?", normalizeEmail(email))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// ===== ACCOUNTS =====

type AccountPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAccountPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AccountRepository {
	return &AccountPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (a *AccountPostgreSQL) Create(ctx context.Context, tx *gorm.DB, account *models.Account) error {
	if err := a.helpers.conn(ctx, tx).Create(account).Error; err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	cache.InvalidateUserCache(ctx, a.cacheManager, account.UserID)
	return nil
}

func (a *AccountPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Account, error) {
	var account models.Account
	if err := a.helpers.conn(ctx, tx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return &account, nil
}

func (a *AccountPostgreSQL) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Account, error) {
	var account models.Account
	if err := a.helpers.conn(ctx, tx).Where("user_id = ?", userID).First(&account).Error; err != nil {
		return nil, fmt.Errorf("failed to get account for user %s: %w", userID, err)
	}
	return &account, nil
}

func (a *AccountPostgreSQL) List(ctx context.Context, tx *gorm.DB, params repositories.ListParams) ([]*models.Account, int64, error) {
	query := a.helpers.conn(ctx, tx).Model(&models.Account{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	var accounts []*models.Account
	if err := a.helpers.ApplyPagination(query.Order("last_name ASC, first_name ASC"), params.Limit, params.Offset).Find(&accounts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, total, nil
}

func (a *AccountPostgreSQL) Update(ctx context.Context, tx *gorm.DB, account *models.Account) error {
	result := a.helpers.conn(ctx, tx).Model(&models.Account{}).Where("id = ?", account.ID).Updates(map[string]any{
		"first_name": account.FirstName,
		"last_name":  account.LastName,
		"role":       account.Role,
		"updated_at": time.Now().UTC(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update account %s: %w", account.ID, gorm.ErrRecordNotFound)
	}
	cache.InvalidateUserCache(ctx, a.cacheManager, account.UserID)
	return nil
}

func (a *AccountPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	var account models.Account
	db := a.helpers.conn(ctx, tx)
	if err := db.Where("id = ?", id).First(&account).Error; err != nil {
		return fmt.Errorf("failed to get account %s: %w", id, err)
	}
	if err := db.Delete(&account).Error; err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	cache.InvalidateUserCache(ctx, a.cacheManager, account.UserID)
	return nil
}
