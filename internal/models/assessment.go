package models

import (
	"time"
)

type ScoringMethod string

const (
	ScoringBoolean ScoringMethod = "boolean"
	ScoringScored  ScoringMethod = "scored"
	ScoringCustom  ScoringMethod = "custom"
)

type Assessment struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	Title         string        `json:"title" gorm:"not null;size:200;index"`
	Description   *string       `json:"description" gorm:"type:text"`
	MinValue      float64       `json:"min_value" gorm:"not null"`
	MaxValue      float64       `json:"max_value" gorm:"not null"`
	ScoringMethod ScoringMethod `json:"scoring_method" gorm:"not null;size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions   []Question   `json:"questions,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty" gorm:"foreignKey:AssessmentID;constraint:OnDelete:CASCADE"`
}

// ApplyDefaultBounds fills min/max from the scoring method. Custom scoring
// has no defaults and is left untouched.
func (a *Assessment) ApplyDefaultBounds() {
	switch a.ScoringMethod {
	case ScoringBoolean:
		a.MinValue, a.MaxValue = 0, 1
	case ScoringScored:
		a.MinValue, a.MaxValue = -1, 1
	}
}

// Diagnostic maps a score band of an assessment to a clinical description.
type Diagnostic struct {
	ID           uint     `json:"id" gorm:"primaryKey"`
	MinValue     *float64 `json:"min_value"`
	MaxValue     *float64 `json:"max_value"`
	Description  string   `json:"description" gorm:"type:text"`
	AssessmentID uint     `json:"assessment_id" gorm:"not null;index"`
}

func (Assessment) TableName() string {
	return "assessments"
}

func (Diagnostic) TableName() string {
	return "diagnostics"
}
