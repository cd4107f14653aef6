package postgres

import (
	"context"
	"fmt"

	"github.com/hazelton-clinic/assessment-service/internal/cache"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
	}
}

func preloadChoices(db *gorm.DB) *gorm.DB {
	return db.Preload("Choices", func(db *gorm.DB) *gorm.DB {
		return db.Order(orderedByPosition)
	})
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	if err := q.helpers.conn(ctx, tx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	if err := preloadChoices(q.helpers.conn(ctx, tx)).First(&question, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get question %d: %w", id, err)
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	if len(ids) == 0 {
		return []*models.Question{}, nil
	}
	var questions []*models.Question
	if err := preloadChoices(q.helpers.conn(ctx, tx)).Where("id IN ?", ids).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error) {
	var questions []*models.Question
	err := preloadChoices(q.helpers.conn(ctx, tx)).
		Where("assessment_id = ?", assessmentID).
		Order(orderedByPosition).
		Find(&questions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	result := q.helpers.conn(ctx, tx).Model(&models.Question{}).Where("id = ?", question.ID).Updates(map[string]any{
		"text":  question.Text,
		"order": question.Order,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update question: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to update question %d: %w", question.ID, gorm.ErrRecordNotFound)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)
	return nil
}

// ReconcileChoices must run inside a transaction so a failure part way leaves
// the stored list untouched.
func (q *QuestionPostgreSQL) ReconcileChoices(ctx context.Context, tx *gorm.DB, questionID uint, choices []models.Choice) error {
	db := q.helpers.conn(ctx, tx)

	var existing []models.Choice
	if err := db.Where("question_id = ?", questionID).Find(&existing).Error; err != nil {
		return fmt.Errorf("failed to load choices: %w", err)
	}
	owned := make(map[uint]bool, len(existing))
	for _, c := range existing {
		owned[c.ID] = true
	}

	keep := make([]uint, 0, len(choices))
	for i := range choices {
		choice := &choices[i]
		choice.QuestionID = questionID

		if choice.ID == 0 {
			if err := db.Create(choice).Error; err != nil {
				return fmt.Errorf("failed to create choice: %w", err)
			}
			keep = append(keep, choice.ID)
			continue
		}

		if !owned[choice.ID] {
			return fmt.Errorf("choice %d of question %d: %w", choice.ID, questionID, repositories.ErrNotFound)
		}
		err := db.Model(&models.Choice{}).Where("id = ?", choice.ID).Updates(map[string]any{
			"text":  choice.Text,
			"value": choice.Value,
			"order": choice.Order,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update choice %d: %w", choice.ID, err)
		}
		keep = append(keep, choice.ID)
	}

	stale := db.Where("question_id = ?", questionID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&models.Choice{}).Error; err != nil {
		return fmt.Errorf("failed to delete removed choices: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	var question models.Question
	db := q.helpers.conn(ctx, tx)
	if err := db.Select("id", "assessment_id").First(&question, id).Error; err != nil {
		return fmt.Errorf("failed to get question %d: %w", id, err)
	}
	if err := db.Delete(&models.Question{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	cache.InvalidateAssessmentCache(ctx, q.cacheManager, question.AssessmentID)
	return nil
}
