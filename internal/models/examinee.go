package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
	GenderOther  Gender = "other"
)

type Examinee struct {
	ID                 string         `json:"id" gorm:"primaryKey;type:uuid"`
	FirstName          string         `json:"first_name" gorm:"not null;size:100"`
	MiddleName         *string        `json:"middle_name" gorm:"size:100"`
	LastName           string         `json:"last_name" gorm:"not null;size:100"`
	BirthDate          datatypes.Date `json:"birth_date" gorm:"not null"`
	Gender             Gender         `json:"gender" gorm:"not null;size:10"`
	Email              string         `json:"email" gorm:"uniqueIndex;not null;size:255"`
	InternalIdentifier *string        `json:"internal_identifier" gorm:"size:100"`
	Comments           *string        `json:"comments" gorm:"type:text"`
	CreatedBy          *string        `json:"created_by" gorm:"type:uuid;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (e *Examinee) FullName() string {
	parts := []string{e.FirstName}
	if e.MiddleName != nil && *e.MiddleName != "" {
		parts = append(parts, *e.MiddleName)
	}
	parts = append(parts, e.LastName)
	return strings.Join(parts, " ")
}

func (Examinee) TableName() string {
	return "examinees"
}
