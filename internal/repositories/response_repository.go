package repositories

import (
	"context"
	"time"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"gorm.io/gorm"
)

type ResponseRepository interface {
	Create(ctx context.Context, tx *gorm.DB, response *models.AssessmentResponse) error
	// GetByID loads the bare row, bypassing the cache.
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.AssessmentResponse, error)
	// GetByIDWithDetails eager-loads the assessment with its questions and
	// choices, the examinee and the question responses.
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.AssessmentResponse, error)
	List(ctx context.Context, tx *gorm.DB, filters ResponseFilters) ([]*models.AssessmentResponse, int64, error)
	// ListForExport returns every response of an assessment with examinee and
	// question responses, oldest first.
	ListForExport(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentResponse, error)

	// CompareAndSetStatus moves the response from -> to only if it is still
	// in from. It reports false when another writer got there first.
	CompareAndSetStatus(ctx context.Context, tx *gorm.DB, id string, from, to models.ResponseStatus, at time.Time) (bool, error)
	// CompleteIfPending sets status completed and the score in one statement
	// guarded by status = pending.
	CompleteIfPending(ctx context.Context, tx *gorm.DB, id string, score float64, at time.Time) (bool, error)

	InvalidateCache(ctx context.Context, id string)
}

type QuestionResponseRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.QuestionResponse) error
	GetByResponse(ctx context.Context, tx *gorm.DB, responseID string) ([]*models.QuestionResponse, error)
}
