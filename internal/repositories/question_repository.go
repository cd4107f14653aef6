package repositories

import (
	"context"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"gorm.io/gorm"
)

// AssessmentRepository covers assessments. Reads without a transaction are
// served through the cache.
type AssessmentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	// GetByIDWithDetails includes questions and choices ordered by "order",
	// plus diagnostics.
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, int64, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}

type QuestionRepository interface {
	// Create inserts the question together with its choices.
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	// GetByIDs returns the questions that exist among ids, with choices.
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error)
	GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	// ReconcileChoices makes the stored choices of questionID match choices:
	// entries with an id are updated, entries without one are created and
	// stored choices absent from the list are deleted.
	ReconcileChoices(ctx context.Context, tx *gorm.DB, questionID uint, choices []models.Choice) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type DiagnosticRepository interface {
	Create(ctx context.Context, tx *gorm.DB, diagnostic *models.Diagnostic) error
	GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Diagnostic, error)
}
