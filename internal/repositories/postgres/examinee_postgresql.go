package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hazelton-clinic/assessment-service/internal/cache"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type ExamineePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewExamineePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ExamineeRepository {
	return &ExamineePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (e *ExamineePostgreSQL) Create(ctx context.Context, tx *gorm.DB, examinee *models.Examinee) error {
	examinee.Email = normalizeEmail(examinee.Email)
	if err := e.helpers.conn(ctx, tx).Create(examinee).Error; err != nil {
		return fmt.Errorf("failed to create examinee: %w", err)
	}
	return nil
}

func (e *ExamineePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Examinee, error) {
	var examinee models.Examinee
	err := e.cacheManager.Examinee.CacheOrExecute(ctx, cache.ExamineeKey(id), &examinee, cache.ExamineeCacheConfig.TTL, func() (any, error) {
		var dbExaminee models.Examinee
		if err := e.helpers.conn(ctx, tx).Where("id = ?", id).First(&dbExaminee).Error; err != nil {
			return nil, fmt.Errorf("failed to get examinee %s: %w", id, err)
		}
		return &dbExaminee, nil
	})
	if err != nil {
		return nil, err
	}
	return &examinee, nil
}

func (e *ExamineePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamineeFilters) ([]*models.Examinee, int64, error) {
	query := e.helpers.conn(ctx, tx).Model(&models.Examinee{})
	if filters.Query != "" {
		pattern := likePattern(filters.Query)
		query = query.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR internal_identifier ILIKE ?",
			pattern, pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count examinees: %w", err)
	}

	var examinees []*models.Examinee
	query = e.helpers.ApplyPagination(query.Order("last_name ASC, first_name ASC"), filters.Limit, filters.Offset)
	if err := query.Find(&examinees).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list examinees: %w", err)
	}
	return examinees, total, nil
}

func (e *ExamineePostgreSQL) Update(ctx context.Context, tx *gorm.DB, examinee *models.Examinee) error {
	result := e.helpers.conn(ctx, tx).Model(&models.Examinee{}).Where("id = ?", examinee.ID).Updates(map[string]any{
		"first_name":          examinee.FirstName,
		"middle_name":         examinee.MiddleName,
		"last_name":           examinee.LastName,
		"birth_date":          examinee.BirthDate,
		"gender":              examinee.Gender,
		"email":               normalizeEmail(examinee.Email),
		"internal_identifier": examinee.InternalIdentifier,
		"comments":            examinee.Comments,
		"updated_at":          time.Now().UTC(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update examinee: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update examinee %s: %w", examinee.ID, gorm.ErrRecordNotFound)
	}
	cache.InvalidateExamineeCache(ctx, e.cacheManager, examinee.ID)
	return nil
}

func (e *ExamineePostgreSQL) SoftDelete(ctx context.Context, tx *gorm.DB, id string) error {
	return e.delete(ctx, e.helpers.conn(ctx, tx), id)
}

// HardDelete removes the row and, through the foreign keys, its responses.
func (e *ExamineePostgreSQL) HardDelete(ctx context.Context, tx *gorm.DB, id string) error {
	return e.delete(ctx, e.helpers.conn(ctx, tx).Unscoped(), id)
}

func (e *ExamineePostgreSQL) delete(ctx context.Context, db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Examinee{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete examinee: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete examinee %s: %w", id, gorm.ErrRecordNotFound)
	}
	cache.InvalidateExamineeCache(ctx, e.cacheManager, id)
	return nil
}

func (e *ExamineePostgreSQL) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *string) (bool, error) {
	query := e.helpers.conn(ctx, tx).Unscoped().Model(&models.Examinee{}).Where("email = ?", normalizeEmail(email))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}
