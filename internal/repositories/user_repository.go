package repositories

import (
	"context"
	"time"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository stores staff credentials. Every read preloads the account
// and ignores soft-deleted users.
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, tx *gorm.DB, token string) (*models.User, error)
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
	Update(ctx context.Context, tx *gorm.DB, user *models.User) error
	SetResetToken(ctx context.Context, tx *gorm.DB, id string, token *string, expires *time.Time) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id string) error
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *string) (bool, error)
}

type AccountRepository interface {
	Create(ctx context.Context, tx *gorm.DB, account *models.Account) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Account, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Account, error)
	List(ctx context.Context, tx *gorm.DB, params ListParams) ([]*models.Account, int64, error)
	Update(ctx context.Context, tx *gorm.DB, account *models.Account) error
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

type ExamineeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, examinee *models.Examinee) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Examinee, error)
	List(ctx context.Context, tx *gorm.DB, filters ExamineeFilters) ([]*models.Examinee, int64, error)
	Update(ctx context.Context, tx *gorm.DB, examinee *models.Examinee) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id string) error
	HardDelete(ctx context.Context, tx *gorm.DB, id string) error
	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *string) (bool, error)
}
