package postgres

import (
	"context"
	"fmt"

	"github.com/hazelton-clinic/assessment-service/internal/cache"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

const orderedByPosition = `"order" ASC, id ASC`

type AssessmentPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAssessmentPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	if err := a.helpers.conn(ctx, tx).Omit("Questions", "Diagnostics").Create(assessment).Error; err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	return nil
}

func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := a.helpers.conn(ctx, tx).First(&assessment, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessment %d: %w", id, err)
	}
	return &assessment, nil
}

// GetByIDWithDetails is the public assessment read and goes through the cache.
func (a *AssessmentPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	var assessment models.Assessment
	err := a.cacheManager.Assessment.CacheOrExecute(ctx, cache.AssessmentKey(id), &assessment, cache.AssessmentCacheConfig.TTL, func() (any, error) {
		var dbAssessment models.Assessment
		err := a.helpers.conn(ctx, tx).
			Preload("Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order(orderedByPosition)
			}).
			Preload("Questions.Choices", func(db *gorm.DB) *gorm.DB {
				return db.Order(orderedByPosition)
			}).
			Preload("Diagnostics", func(db *gorm.DB) *gorm.DB {
				return db.Order("id ASC")
			}).
			First(&dbAssessment, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get assessment %d: %w", id, err)
		}
		return &dbAssessment, nil
	})
	if err != nil {
		return nil, err
	}
	return &assessment, nil
}

func (a *AssessmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	query := a.helpers.conn(ctx, tx).Model(&models.Assessment{})
	if filters.Title != "" {
		query = query.Where("title ILIKE ?", likePattern(filters.Title))
	}
	if filters.ScoringMethod != nil {
		query = query.Where("scoring_method = ?", *filters.ScoringMethod)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	query = a.helpers.ApplySort(query, filters.SortBy, filters.SortOrder, "id",
		map[string]bool{"id": true, "title": true, "created_at": true, "updated_at": true})
	query = a.helpers.ApplyPagination(query, filters.Limit, filters.Offset)

	var assessments []*models.Assessment
	if err := query.Find(&assessments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	return assessments, total, nil
}

func (a *AssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	result := a.helpers.conn(ctx, tx).Model(&models.Assessment{}).Where("id = ?", assessment.ID).Updates(map[string]any{
		"title":          assessment.Title,
		"description":    assessment.Description,
		"min_value":      assessment.MinValue,
		"max_value":      assessment.MaxValue,
		"scoring_method": assessment.ScoringMethod,
		"updated_at":     assessment.UpdatedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update assessment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update assessment %d: %w", assessment.ID, gorm.ErrRecordNotFound)
	}

	cache.InvalidateAssessmentCache(ctx, a.cacheManager, assessment.ID)
	return nil
}

func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := a.helpers.conn(ctx, tx).Delete(&models.Assessment{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete assessment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to delete assessment %d: %w", id, gorm.ErrRecordNotFound)
	}

	cache.InvalidateAssessmentCache(ctx, a.cacheManager, id)
	return nil
}

func (a *AssessmentPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	return a.helpers.Exists(ctx, tx, &models.Assessment{}, "id = ?", id)
}

// ===== DIAGNOSTICS =====

type DiagnosticPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewDiagnosticPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.DiagnosticRepository {
	return &DiagnosticPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (d *DiagnosticPostgreSQL) Create(ctx context.Context, tx *gorm.DB, diagnostic *models.Diagnostic) error {
	if err := d.helpers.conn(ctx, tx).Create(diagnostic).Error; err != nil {
		return fmt.Errorf("failed to create diagnostic: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, d.cacheManager, diagnostic.AssessmentID)
	return nil
}

func (d *DiagnosticPostgreSQL) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Diagnostic, error) {
	var diagnostics []*models.Diagnostic
	err := d.helpers.conn(ctx, tx).
		Where("assessment_id = ?", assessmentID).
		Order("id ASC").
		Find(&diagnostics).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnostics: %w", err)
	}
	return diagnostics, nil
}
