package repositories

import (
	"errors"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type ListParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type AssessmentFilters struct {
	Title         string                `json:"title"`
	ScoringMethod *models.ScoringMethod `json:"scoring_method"`
	Limit         int                   `json:"limit"`
	Offset        int                   `json:"offset"`
	SortBy        string                `json:"sort_by"`    // "created_at", "title", "id"
	SortOrder     string                `json:"sort_order"` // "asc", "desc"
}

type ResponseFilters struct {
	AssessmentID *uint                  `json:"assessment_id"`
	ExamineeID   *string                `json:"examinee_id"`
	Status       *models.ResponseStatus `json:"status"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

type ExamineeFilters struct {
	Query  string `json:"query"` // name, email or internal identifier
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type UserFilters struct {
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// ===== ERRORS =====

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// IsNotFoundError reports whether err means the row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique constraint violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsForeignKeyError reports whether err is a foreign key violation, i.e. the
// row is still referenced.
func IsForeignKeyError(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}
