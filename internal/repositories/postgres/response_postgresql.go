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

type ResponsePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewResponsePostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ResponseRepository {
	return &ResponsePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func (r *ResponsePostgreSQL) Create(ctx context.Context, tx *gorm.DB, response *models.AssessmentResponse) error {
	err := r.helpers.conn(ctx, tx).
		Omit("Assessment", "Examinee", "Creator", "QuestionResponses").
		Create(response).Error
	if err != nil {
		return fmt.Errorf("failed to create response: %w", err)
	}
	return nil
}

func (r *ResponsePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.AssessmentResponse, error) {
	var response models.AssessmentResponse
	if err := r.helpers.conn(ctx, tx).Where("id = ?", id).First(&response).Error; err != nil {
		return nil, fmt.Errorf("failed to get response %s: %w", id, err)
	}
	return &response, nil
}

func (r *ResponsePostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.AssessmentResponse, error) {
	var response models.AssessmentResponse
	err := r.cacheManager.Response.CacheOrExecute(ctx, cache.ResponseKey(id), &response, cache.ResponseCacheConfig.TTL, func() (any, error) {
		var dbResponse models.AssessmentResponse
		err := r.helpers.conn(ctx, tx).
			Preload("Assessment").
			Preload("Assessment.Questions", func(db *gorm.DB) *gorm.DB {
				return db.Order(orderedByPosition)
			}).
			Preload("Assessment.Questions.Choices", func(db *gorm.DB) *gorm.DB {
				return db.Order(orderedByPosition)
			}).
			Preload("Examinee").
			Preload("QuestionResponses", func(db *gorm.DB) *gorm.DB {
				return db.Order("id ASC")
			}).
			Where("id = ?", id).
			First(&dbResponse).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get response %s: %w", id, err)
		}
		return &dbResponse, nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *ResponsePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.ResponseFilters) ([]*models.AssessmentResponse, int64, error) {
	query := r.helpers.conn(ctx, tx).Model(&models.AssessmentResponse{})
	if filters.AssessmentID != nil {
		query = query.Where("assessment_id = ?", *filters.AssessmentID)
	}
	if filters.ExamineeID != nil {
		query = query.Where("examinee_id = ?", *filters.ExamineeID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count responses: %w", err)
	}

	var responses []*models.AssessmentResponse
	query = r.helpers.ApplyPagination(
		query.Preload("Assessment").Preload("Examinee").Order("created_at DESC"),
		filters.Limit, filters.Offset)
	if err := query.Find(&responses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, total, nil
}

func (r *ResponsePostgreSQL) ListForExport(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentResponse, error) {
	var responses []*models.AssessmentResponse
	err := r.helpers.conn(ctx, tx).
		Preload("Examinee", func(db *gorm.DB) *gorm.DB {
			return db.Unscoped()
		}).
		Preload("QuestionResponses").
		Where("assessment_id = ?", assessmentID).
		Order("created_at ASC, id ASC").
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load responses for export: %w", err)
	}
	return responses, nil
}

func (r *ResponsePostgreSQL) CompareAndSetStatus(ctx context.Context, tx *gorm.DB, id string, from, to models.ResponseStatus, at time.Time) (bool, error) {
	result := r.helpers.conn(ctx, tx).
		Model(&models.AssessmentResponse{}).
		Where("id = ? AND status = ?", id, from).
		UpdateColumns(map[string]any{
			"status":     to,
			"updated_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to update response status: %w", result.Error)
	}
	r.InvalidateCache(ctx, id)
	return result.RowsAffected == 1, nil
}

func (r *ResponsePostgreSQL) CompleteIfPending(ctx context.Context, tx *gorm.DB, id string, score float64, at time.Time) (bool, error) {
	result := r.helpers.conn(ctx, tx).
		Model(&models.AssessmentResponse{}).
		Where("id = ? AND status = ?", id, models.ResponsePending).
		UpdateColumns(map[string]any{
			"status":     models.ResponseCompleted,
			"score":      score,
			"updated_at": at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to complete response: %w", result.Error)
	}
	r.InvalidateCache(ctx, id)
	return result.RowsAffected == 1, nil
}

func (r *ResponsePostgreSQL) InvalidateCache(ctx context.Context, id string) {
	cache.InvalidateResponseCache(ctx, r.cacheManager, id)
}

// ===== QUESTION RESPONSES =====

type QuestionResponsePostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewQuestionResponsePostgreSQL(db *gorm.DB) repositories.QuestionResponseRepository {
	return &QuestionResponsePostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (q *QuestionResponsePostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.QuestionResponse) error {
	if len(answers) == 0 {
		return nil
	}
	if err := q.helpers.conn(ctx, tx).CreateInBatches(answers, 200).Error; err != nil {
		return fmt.Errorf("failed to create question responses: %w", err)
	}
	return nil
}

func (q *QuestionResponsePostgreSQL) GetByResponse(ctx context.Context, tx *gorm.DB, responseID string) ([]*models.QuestionResponse, error) {
	var answers []*models.QuestionResponse
	err := q.helpers.conn(ctx, tx).
		Where("assessment_response_id = ?", responseID).
		Order("id ASC").
		Find(&answers).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list question responses: %w", err)
	}
	return answers, nil
}
