package models

import (
	"time"
)

type Question struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Text         string    `json:"text" gorm:"type:text;not null"`
	Order        int       `json:"order" gorm:"not null;default:0"`
	AssessmentID uint      `json:"assessment_id" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`

	// Relations
	Choices []Choice `json:"choices" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

type Choice struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	Text       string  `json:"text" gorm:"type:text;not null"`
	Value      float64 `json:"value" gorm:"not null;default:0"`
	Order      int     `json:"order" gorm:"not null;default:0"`
	QuestionID uint    `json:"question_id" gorm:"not null;index"`
}

// HasChoice reports whether choiceID belongs to the question.
func (q *Question) HasChoice(choiceID uint) bool {
	for _, c := range q.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

func (Question) TableName() string {
	return "questions"
}

func (Choice) TableName() string {
	return "choices"
}
